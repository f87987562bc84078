package store

import (
	"fmt"

	"github.com/mkurdin/readfeed/app/ao3"
)

// WorkRepository handles database operations for archived works
type WorkRepository struct {
	db *DB
}

// NewWorkRepository creates a new work repository
func NewWorkRepository(db *DB) *WorkRepository {
	return &WorkRepository{db: db}
}

// UpsertEntry inserts or updates one history entry by work id. The
// first_seen_at of an existing row is preserved.
func (r *WorkRepository) UpsertEntry(entry *ao3.HistoryEntry) error {
	var total *int
	if entry.Chapters.TotalKnown {
		t := entry.Chapters.Total
		total = &t
	}

	names := make([]string, 0, len(entry.Authors))
	for _, author := range entry.Authors {
		names = append(names, author.Name)
	}

	seriesName := ""
	seriesPart := 0
	if entry.Series != nil {
		seriesName = entry.Series.Name
		seriesPart = entry.Series.Part
	}

	_, err := r.db.Exec(`
		INSERT INTO works (
			id, title, authors, tag_line, summary, language, words,
			chapters_written, chapters_total, comments, kudos, bookmarks,
			hits, series_name, series_part, updated_at, last_visited,
			change_state, visit_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			authors = excluded.authors,
			tag_line = excluded.tag_line,
			summary = excluded.summary,
			language = excluded.language,
			words = excluded.words,
			chapters_written = excluded.chapters_written,
			chapters_total = excluded.chapters_total,
			comments = excluded.comments,
			kudos = excluded.kudos,
			bookmarks = excluded.bookmarks,
			hits = excluded.hits,
			series_name = excluded.series_name,
			series_part = excluded.series_part,
			updated_at = excluded.updated_at,
			last_visited = excluded.last_visited,
			change_state = excluded.change_state,
			visit_count = excluded.visit_count,
			last_seen_at = CURRENT_TIMESTAMP
	`, entry.ID, entry.Title, joinAuthors(names), entry.TagLine(), entry.Summary,
		ao3.LanguageTag(entry.Language), entry.Words,
		entry.Chapters.Written, total, entry.Comments, entry.Kudos,
		entry.Bookmarks, entry.Hits, seriesName, seriesPart,
		entry.LastUpdated, entry.LastVisited,
		entry.Changed.String(), entry.Visited)

	if err != nil {
		return fmt.Errorf("failed to upsert work %d: %w", entry.ID, err)
	}

	return nil
}

// UpsertPage stores every entry of one listing page.
func (r *WorkRepository) UpsertPage(page *ao3.HistoryPage) error {
	for i := range page.Entries {
		if err := r.UpsertEntry(&page.Entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetRecent returns archived works ordered by last visit, newest first.
func (r *WorkRepository) GetRecent(limit, offset int) ([]WorkRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, title, authors, tag_line, summary, language, words,
		       chapters_written, chapters_total, comments, kudos, bookmarks,
		       hits, series_name, series_part, updated_at, last_visited,
		       change_state, visit_count, first_seen_at, last_seen_at
		FROM works
		ORDER BY last_visited DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent works: %w", err)
	}
	defer rows.Close()

	var records []WorkRecord
	for rows.Next() {
		var record WorkRecord
		var authors string
		err := rows.Scan(
			&record.ID, &record.Title, &authors, &record.TagLine,
			&record.Summary, &record.Language, &record.Words,
			&record.ChaptersWritten, &record.ChaptersTotal,
			&record.Comments, &record.Kudos, &record.Bookmarks,
			&record.Hits, &record.SeriesName, &record.SeriesPart,
			&record.UpdatedAt, &record.LastVisited,
			&record.ChangeState, &record.VisitCount,
			&record.FirstSeenAt, &record.LastSeenAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work row: %w", err)
		}
		record.Authors = splitAuthors(authors)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work rows: %w", err)
	}

	return records, nil
}

// GetWorkCount returns the total number of archived works.
func (r *WorkRepository) GetWorkCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM works").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get work count: %w", err)
	}
	return count, nil
}

// GetStats returns archive statistics: work count, total visit count and
// a per-language breakdown.
func (r *WorkRepository) GetStats() (Stats, error) {
	stats := Stats{Languages: make(map[string]int)}

	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(visit_count), 0) FROM works
	`).Scan(&stats.Works, &stats.Visits)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get work stats: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT language, COUNT(*) FROM works GROUP BY language
	`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get language stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var language string
		var count int
		if err := rows.Scan(&language, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan language row: %w", err)
		}
		stats.Languages[language] = count
	}

	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("error iterating language rows: %w", err)
	}

	return stats, nil
}
