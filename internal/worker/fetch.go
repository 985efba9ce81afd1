package worker

import (
	"context"
	"fmt"

	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/scrape"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

type adFetchPayload struct {
	URL          string `json:"url"`
	CompetitorID string `json:"competitor_id"`
	GroupID      int64  `json:"group_id"`
	ParentSKU    string `json:"parent_sku"`
}

// AdFetchHandler scrapes a competitor listing page and stores the
// observed title, price and stock.
type AdFetchHandler struct {
	Fetcher *scrape.Fetcher
}

func (h *AdFetchHandler) TaskType() model.TaskType {
	return model.TaskAdFetch
}

func (h *AdFetchHandler) Handle(ctx context.Context, t *model.QueueTask) (string, error) {
	var p adFetchPayload
	if err := utils.Json.Unmarshal([]byte(t.PayloadJSON), &p); err != nil {
		return "", errors.Wrap(err, "malformed ad fetch payload")
	}
	if p.URL == "" {
		return "", errors.New("ad fetch payload missing url")
	}
	listing, err := h.Fetcher.Fetch(ctx, p.URL)
	if err != nil {
		return "", err
	}
	mlbID := p.CompetitorID
	if mlbID == "" {
		mlbID = t.ItemID
	}
	ad := &model.CompetitorAd{
		MLBID:          mlbID,
		LinkedGroupID:  p.GroupID,
		ParentSKU:      p.ParentSKU,
		URL:            p.URL,
		LastKnownTitle: listing.Title,
		LastKnownPrice: listing.Price,
		LastKnownStock: listing.Stock,
	}
	if err := db.UpsertCompetitorAd(ad); err != nil {
		return "", err
	}
	return fmt.Sprintf("%q at %.2f with %d units", listing.Title, listing.Price, listing.Stock), nil
}
