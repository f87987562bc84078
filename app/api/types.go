package api

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/mkurdin/readfeed/app/ao3"
	"github.com/mkurdin/readfeed/app/cache"
	"github.com/mkurdin/readfeed/app/store"
)

// HistoryFetcher is the authenticated upstream session boundary. The
// core makes no distinction between transport and auth failures here;
// both abort the page and are retried on the next request.
type HistoryFetcher interface {
	FetchHistoryPage(ctx context.Context, page int) (*goquery.Document, error)
}

var _ HistoryFetcher = (*ao3.Session)(nil)

type WorkRepository interface {
	UpsertPage(page *ao3.HistoryPage) error
	GetRecent(limit, offset int) ([]store.WorkRecord, error)
	GetWorkCount() (int, error)
	GetStats() (store.Stats, error)
}

var _ WorkRepository = (*store.WorkRepository)(nil)

type Handler struct {
	session   HistoryFetcher
	extractor *ao3.Extractor
	pages     *cache.Pages[*ao3.HistoryPage]
	workRepo  WorkRepository
	pageSize  int
}
