package tasks

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/mkurdin/readfeed/app/ao3"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application to manage the archive sync
// worker pool.
// Example usage:
//
//	scheduler := NewScheduler(session, extractor, workRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// HistoryFetcher fetches one reading history listing page.
type HistoryFetcher interface {
	FetchHistoryPage(ctx context.Context, page int) (*goquery.Document, error)
}

// WorkRepository stores extracted history pages.
type WorkRepository interface {
	UpsertPage(page *ao3.HistoryPage) error
}
