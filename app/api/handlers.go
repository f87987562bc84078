package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkurdin/readfeed/app/ao3"
	"github.com/mkurdin/readfeed/app/cache"
	"github.com/mkurdin/readfeed/app/opds"
)

func NewHandler(session HistoryFetcher, extractor *ao3.Extractor,
	pages *cache.Pages[*ao3.HistoryPage], workRepo WorkRepository,
	pageSize int) *Handler {
	return &Handler{
		session:   session,
		extractor: extractor,
		pages:     pages,
		workRepo:  workRepo,
		pageSize:  pageSize,
	}
}

// GetCatalog serves the navigation root: one subsection link per catalog
// section.
func (h *Handler) GetCatalog(c *gin.Context) {
	feed := opds.NewFeed("catalog", "Reading history catalog", []opds.Link{
		{Type: opds.TypeNavigation, Rel: opds.RelSelf, Href: opds.BasePath + "/catalog"},
		{Type: opds.TypeNavigation, Rel: opds.RelStart, Href: opds.BasePath + "/catalog"},
		{Type: opds.TypeNavigation, Rel: opds.RelSubsection, Href: opds.BasePath + "/history"},
		{Type: opds.TypeNavigation, Rel: opds.RelSubsection, Href: opds.BasePath + "/archive"},
	}, nil)

	h.serveFeed(c, feed)
}

// GetHistoryFeed serves one page of the upstream reading history. The
// page cache guarantees a single upstream fetch per page among concurrent
// requests; a failed fetch or parse is never cached.
func (h *Handler) GetHistoryFeed(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}

	historyPage, err := h.pages.GetOrFetch(c.Request.Context(), page, func(ctx context.Context) (*ao3.HistoryPage, error) {
		doc, err := h.session.FetchHistoryPage(ctx, page)
		if err != nil {
			return nil, err
		}

		parsed, err := h.extractor.HistoryPage(doc, page)
		if err != nil {
			return nil, err
		}

		// Archiving is best-effort: a storage hiccup must not fail
		// the feed.
		if err := h.workRepo.UpsertPage(parsed); err != nil {
			slog.Warn("Failed to archive history page", "page", page, "error", err)
		}

		return parsed, nil
	})
	if err != nil {
		slog.Error("History page unavailable", "page", page, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream history page unavailable"})
		return
	}

	h.serveFeed(c, historyPage.Feed())
}

// GetArchiveFeed serves the locally archived works, newest visit first.
func (h *Handler) GetArchiveFeed(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}

	// Fetch one row past the page boundary to decide whether a next
	// page exists.
	records, err := h.workRepo.GetRecent(h.pageSize+1, (page-1)*h.pageSize)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent", "page", page, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	hasNext := len(records) > h.pageSize
	if hasNext {
		records = records[:h.pageSize]
	}

	feed := opds.Paginated(
		fmt.Sprintf("archive-page-%d", page),
		fmt.Sprintf("Archive page %d", page),
		"archive",
		records,
		page,
		hasNext,
		page > 1,
	)

	h.serveFeed(c, feed)
}

func (h *Handler) serveFeed(c *gin.Context, feed *opds.Feed) {
	body, err := feed.Build()
	if err != nil {
		slog.Error("Feed generation error", "feed", feed.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", opds.ContentType)
	c.Header("X-Feed-Entries", strconv.Itoa(len(feed.Entries)))
	c.String(http.StatusOK, body)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":    time.Now().In(time.Local).Format(time.RFC3339),
		"cached_pages": h.pages.Len(),
	}

	if workCount, err := h.workRepo.GetWorkCount(); err == nil {
		health["archived_works"] = workCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.workRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"archived_works": stats.Works,
		"total_visits":   stats.Visits,
		"languages":      stats.Languages,
		"cached_pages":   h.pages.Len(),
	})
}

// APIInvalidateCache drops every cached history page so the next request
// refetches from upstream.
func (h *Handler) APIInvalidateCache(c *gin.Context) {
	dropped := h.pages.Len()
	h.pages.Purge()

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"dropped_pages": dropped,
	})
}

// pageParam reads the page query parameter: a positive integer,
// defaulting to 1. A malformed value is reported as a bad request.
func pageParam(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid page parameter: %q", raw)})
		return 0, false
	}
	return page, true
}
