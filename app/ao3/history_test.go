package ao3

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mkurdin/readfeed/app/opds"
)

const visitedBlockMarkup = `
    <div class="user module group">
      <h4 class="viewed heading">
        Last visited: 05 Jan 2023
        (Update available.)
        Visited 3 times
      </h4>
    </div>`

// historyRecordMarkup turns the work blurb fixture into a history blurb
// for the given work id, with a visit metadata block appended.
func historyRecordMarkup(id string, visited string) string {
	start := strings.Index(workBlurbMarkup, "<li")
	end := strings.LastIndex(workBlurbMarkup, "</li>")
	record := workBlurbMarkup[start:end] + visited + "\n  </li>"
	return strings.ReplaceAll(record, "45678901", id)
}

func historyPageMarkup(records []string, pager string) string {
	return `<html><body><ol class="reading index group work">` +
		strings.Join(records, "\n") +
		"</ol>\n" + pager + "</body></html>"
}

func parseHistoryDocument(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("Failed to parse test markup: %v", err)
	}
	return doc
}

func TestParseChangeState(t *testing.T) {
	state := parseChangeState("Latest version.")
	if state.Kind != ChangeLatest || state.String() != "latest" {
		t.Errorf("Unexpected state for latest version: %+v", state)
	}

	state = parseChangeState("Minor edits made since then.")
	if state.Kind != ChangeMinorEdits || state.String() != "minor_edits" {
		t.Errorf("Unexpected state for minor edits: %+v", state)
	}

	state = parseChangeState("Update available.")
	if state.Kind != ChangeUpdateAvailable || state.String() != "update_available" {
		t.Errorf("Unexpected state for update available: %+v", state)
	}
}

func TestParseChangeStateUnknownPhraseKeptVerbatim(t *testing.T) {
	state := parseChangeState("Rewritten from scratch.")
	if state.Kind != ChangeUnknown {
		t.Errorf("Expected ChangeUnknown, got %v", state.Kind)
	}
	if state.String() != "Rewritten from scratch." {
		t.Errorf("Expected raw phrase to survive, got '%s'", state.String())
	}
}

func TestParseVisitCount(t *testing.T) {
	if n := parseVisitCount("once"); n != 1 {
		t.Errorf("Expected 'once' to parse as 1, got %d", n)
	}
	if n := parseVisitCount("3 times"); n != 3 {
		t.Errorf("Expected '3 times' to parse as 3, got %d", n)
	}
	if n := parseVisitCount("1,024 times"); n != 1024 {
		t.Errorf("Expected '1,024 times' to parse as 1024, got %d", n)
	}
	if n := parseVisitCount("quite often"); n != 0 {
		t.Errorf("Expected unrecognized phrasing to parse as 0, got %d", n)
	}
}

func TestHistoryEntry(t *testing.T) {
	markup := historyPageMarkup([]string{historyRecordMarkup("45678901", visitedBlockMarkup)}, "")
	doc := parseHistoryDocument(t, markup)

	extractor := NewExtractor(DefaultSelectors())
	entry, err := extractor.HistoryEntry(doc.Find("li.blurb"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if entry.ID != 45678901 {
		t.Errorf("Expected embedded work id 45678901, got %d", entry.ID)
	}

	wantVisited := time.Date(2023, time.January, 5, 0, 0, 0, 0, time.UTC)
	if !entry.LastVisited.Equal(wantVisited) {
		t.Errorf("Expected last visited %v, got %v", wantVisited, entry.LastVisited)
	}
	if entry.Changed.Kind != ChangeUpdateAvailable {
		t.Errorf("Expected update available, got %v", entry.Changed.Kind)
	}
	if entry.Visited != 3 {
		t.Errorf("Expected 3 visits, got %d", entry.Visited)
	}
}

func TestHistoryEntryVisitedOnce(t *testing.T) {
	visited := strings.Replace(visitedBlockMarkup, "Visited 3 times", "Visited once", 1)
	visited = strings.Replace(visited, "(Update available.)", "(Latest version.)", 1)
	markup := historyPageMarkup([]string{historyRecordMarkup("45678901", visited)}, "")
	doc := parseHistoryDocument(t, markup)

	extractor := NewExtractor(DefaultSelectors())
	entry, err := extractor.HistoryEntry(doc.Find("li.blurb"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if entry.Visited != 1 {
		t.Errorf("Expected 1 visit, got %d", entry.Visited)
	}
	if entry.Changed.Kind != ChangeLatest {
		t.Errorf("Expected latest version, got %v", entry.Changed.Kind)
	}
}

func TestHistoryEntryMissingVisitBlockFails(t *testing.T) {
	markup := historyPageMarkup([]string{historyRecordMarkup("45678901", "")}, "")
	doc := parseHistoryDocument(t, markup)

	extractor := NewExtractor(DefaultSelectors())
	_, err := extractor.HistoryEntry(doc.Find("li.blurb"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing visit block, got: %v", err)
	}
}

func TestHistoryPage(t *testing.T) {
	records := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		records = append(records, historyRecordMarkup(fmt.Sprintf("100%d", i), visitedBlockMarkup))
	}
	pager := `<ol class="pagination actions"><li class="next"><a href="?page=2">Next</a></li></ol>`
	doc := parseHistoryDocument(t, historyPageMarkup(records, pager))

	extractor := NewExtractor(DefaultSelectors())
	page, err := extractor.HistoryPage(doc, 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(page.Entries) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(page.Entries))
	}
	if page.Entries[0].ID != 1001 || page.Entries[4].ID != 1005 {
		t.Errorf("Expected entries in source order, got %d..%d", page.Entries[0].ID, page.Entries[4].ID)
	}
	if page.Page != 1 {
		t.Errorf("Expected page 1, got %d", page.Page)
	}
	if !page.HasNext {
		t.Error("Expected HasNext for a page with a next control")
	}
	if page.HasPrevious {
		t.Error("Expected no HasPrevious for a page without a previous control")
	}
}

func TestHistoryPageWithoutPager(t *testing.T) {
	doc := parseHistoryDocument(t, historyPageMarkup(
		[]string{historyRecordMarkup("2001", visitedBlockMarkup)}, ""))

	extractor := NewExtractor(DefaultSelectors())
	page, err := extractor.HistoryPage(doc, 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if page.HasNext || page.HasPrevious {
		t.Errorf("Expected no pager flags, got next=%v previous=%v", page.HasNext, page.HasPrevious)
	}
}

func TestHistoryPageBothPagerControls(t *testing.T) {
	pager := `<ol class="pagination actions">
		<li class="previous"><a href="?page=1">Previous</a></li>
		<li class="next"><a href="?page=3">Next</a></li>
	</ol>`
	doc := parseHistoryDocument(t, historyPageMarkup(
		[]string{historyRecordMarkup("2001", visitedBlockMarkup)}, pager))

	extractor := NewExtractor(DefaultSelectors())
	page, err := extractor.HistoryPage(doc, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !page.HasNext || !page.HasPrevious {
		t.Errorf("Expected both pager flags, got next=%v previous=%v", page.HasNext, page.HasPrevious)
	}
}

func TestHistoryPageBrokenRecordFailsWholePage(t *testing.T) {
	broken := strings.Replace(historyRecordMarkup("3002", visitedBlockMarkup),
		`<li class="warnings"><strong><a class="tag" href="/tags/warnings">No Archive Warnings Apply</a></strong></li>`, "", 1)
	records := []string{
		historyRecordMarkup("3001", visitedBlockMarkup),
		broken,
		historyRecordMarkup("3003", visitedBlockMarkup),
	}
	doc := parseHistoryDocument(t, historyPageMarkup(records, ""))

	extractor := NewExtractor(DefaultSelectors())
	_, err := extractor.HistoryPage(doc, 1)
	if err == nil {
		t.Fatal("Expected a broken record to fail the page")
	}
	if !strings.Contains(err.Error(), "record 1") {
		t.Errorf("Error should name the failing record, got: %v", err)
	}
}

func TestHistoryPageFeed(t *testing.T) {
	pager := `<ol class="pagination actions">
		<li class="previous"><a href="?page=1">Previous</a></li>
		<li class="next"><a href="?page=3">Next</a></li>
	</ol>`
	records := []string{
		historyRecordMarkup("4001", visitedBlockMarkup),
		historyRecordMarkup("4002", visitedBlockMarkup),
	}
	doc := parseHistoryDocument(t, historyPageMarkup(records, pager))

	extractor := NewExtractor(DefaultSelectors())
	page, err := extractor.HistoryPage(doc, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	feed := page.Feed()

	if feed.ID != "history-page-2" {
		t.Errorf("Unexpected feed id: '%s'", feed.ID)
	}
	if feed.Title != "History page 2" {
		t.Errorf("Unexpected feed title: '%s'", feed.Title)
	}
	if len(feed.Entries) != 2 {
		t.Errorf("Expected 2 feed entries, got %d", len(feed.Entries))
	}

	wantHrefs := []string{
		"/opds/v1.2/history?page=2",
		"/opds/v1.2/catalog",
		"/opds/v1.2/history?page=1",
		"/opds/v1.2/history?page=3",
	}
	wantRels := []opds.LinkRel{opds.RelSelf, opds.RelStart, opds.RelPrevious, opds.RelNext}
	if len(feed.Links) != len(wantHrefs) {
		t.Fatalf("Expected %d links, got %d", len(wantHrefs), len(feed.Links))
	}
	for i, link := range feed.Links {
		if link.Href != wantHrefs[i] {
			t.Errorf("Link %d: expected href '%s', got '%s'", i, wantHrefs[i], link.Href)
		}
		if link.Rel != wantRels[i] {
			t.Errorf("Link %d: expected rel %v, got %v", i, wantRels[i], link.Rel)
		}
	}
}
