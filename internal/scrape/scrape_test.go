package scrape_test

import (
	"strings"
	"testing"

	"github.com/melitools/melisync/internal/scrape"
	"github.com/stretchr/testify/require"
)

const productPage = `<!DOCTYPE html>
<html><head>
<meta itemprop="price" content="149.90">
</head><body>
<h1 class="ui-pdp-title">Filtro de Ar Esportivo</h1>
<script>window.__PRELOADED_STATE__ = {"price":149.9,"available_quantity": 12};</script>
</body></html>`

func TestParseExtractsTitlePriceStock(t *testing.T) {
	l, err := scrape.Parse(strings.NewReader(productPage))
	require.NoError(t, err)
	require.Equal(t, "Filtro de Ar Esportivo", l.Title)
	require.Equal(t, 149.90, l.Price)
	require.Equal(t, 12, l.Stock)
}

func TestParseFallsBackToEmbeddedPrice(t *testing.T) {
	page := `<html><body><h1>Pastilha de Freio</h1>
<script>{"price": 89.5,"available_quantity":3}</script></body></html>`
	l, err := scrape.Parse(strings.NewReader(page))
	require.NoError(t, err)
	require.Equal(t, "Pastilha de Freio", l.Title)
	require.Equal(t, 89.5, l.Price)
	require.Equal(t, 3, l.Stock)
}

func TestParseMissingStockLeavesZero(t *testing.T) {
	page := `<html><body><h1 class="ui-pdp-title">Amortecedor</h1>
<meta itemprop="price" content="200"></body></html>`
	l, err := scrape.Parse(strings.NewReader(page))
	require.NoError(t, err)
	require.Equal(t, "Amortecedor", l.Title)
	require.Zero(t, l.Stock)
}

func TestParseUnrecognizablePageFails(t *testing.T) {
	_, err := scrape.Parse(strings.NewReader(`<html><body><div>nothing here</div></body></html>`))
	require.Error(t, err)
}
