// Package scrape extracts title, price and available stock from a public
// listing page.
package scrape

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

type Listing struct {
	Title string
	Price float64
	Stock int
}

var (
	priceJSONRe = regexp.MustCompile(`"price"\s*:\s*([0-9]+(?:\.[0-9]+)?)`)
	stockJSONRe = regexp.MustCompile(`"available_quantity"\s*:\s*(\d+)`)
)

// Parse pulls the listing fields out of a product page. Title comes from
// the page heading, price from the itemprop meta with a fallback to the
// embedded JSON state, stock from the embedded JSON state only.
func Parse(r io.Reader) (*Listing, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read listing page")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, errors.Wrap(err, "parse listing page")
	}

	var l Listing
	l.Title = strings.TrimSpace(doc.Find("h1.ui-pdp-title").First().Text())
	if l.Title == "" {
		l.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	if content, ok := doc.Find(`meta[itemprop="price"]`).First().Attr("content"); ok {
		if p, err := strconv.ParseFloat(content, 64); err == nil {
			l.Price = p
		}
	}
	if l.Price == 0 {
		if m := priceJSONRe.FindSubmatch(raw); m != nil {
			l.Price, _ = strconv.ParseFloat(string(m[1]), 64)
		}
	}

	if m := stockJSONRe.FindSubmatch(raw); m != nil {
		l.Stock, _ = strconv.Atoi(string(m[1]))
	}

	if l.Title == "" && l.Price == 0 {
		return nil, errors.New("listing page had no recognizable title or price")
	}
	return &l, nil
}

type Fetcher struct {
	rc *resty.Client
}

func NewFetcher() *Fetcher {
	rc := resty.New().
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36").
		SetHeader("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8").
		SetTimeout(30 * time.Second).
		SetRetryCount(2)
	return &Fetcher{rc: rc}
}

// Fetch downloads and parses a listing page.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Listing, error) {
	resp, err := f.rc.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch listing %s", url)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() >= 400 {
		return nil, errors.Errorf("fetch listing %s: status %d", url, resp.StatusCode())
	}
	return Parse(body)
}
