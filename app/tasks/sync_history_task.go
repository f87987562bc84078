package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkurdin/readfeed/app/ao3"
)

// SyncHistoryTask fetches one reading history page and stores its
// entries in the local archive.
type SyncHistoryTask struct {
	Task
	fetcher   HistoryFetcher
	extractor *ao3.Extractor
	workRepo  WorkRepository
}

func NewSyncHistoryTask(page int, fetcher HistoryFetcher, extractor *ao3.Extractor,
	workRepo WorkRepository) *SyncHistoryTask {
	return &SyncHistoryTask{
		Task:      NewTask(TaskTypeSyncHistory, page),
		fetcher:   fetcher,
		extractor: extractor,
		workRepo:  workRepo,
	}
}

func (t *SyncHistoryTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	doc, err := t.fetcher.FetchHistoryPage(ctx, t.Page)
	if err != nil {
		return fmt.Errorf("failed to fetch history page %d: %w", t.Page, err)
	}

	page, err := t.extractor.HistoryPage(doc, t.Page)
	if err != nil {
		return fmt.Errorf("failed to extract history page %d: %w", t.Page, err)
	}

	if err := t.workRepo.UpsertPage(page); err != nil {
		return fmt.Errorf("failed to archive history page %d: %w", t.Page, err)
	}

	slog.Info("Task completed",
		"type", "SyncHistory",
		"page", t.Page,
		"entries", len(page.Entries),
		"duration", t.GetDuration())

	return nil
}
