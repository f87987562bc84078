package ao3

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mkurdin/readfeed/app/opds"
)

// ChangeKind is the tri-state "changed since last visit" indicator the
// archive renders next to each history entry.
type ChangeKind int

const (
	ChangeUnknown ChangeKind = iota
	ChangeLatest
	ChangeMinorEdits
	ChangeUpdateAvailable
)

// ChangeState preserves unrecognized upstream phrases verbatim in Raw so
// the feed can still be produced when the archive rewords its copy.
type ChangeState struct {
	Kind ChangeKind
	Raw  string
}

func (c ChangeState) String() string {
	switch c.Kind {
	case ChangeLatest:
		return "latest"
	case ChangeMinorEdits:
		return "minor_edits"
	case ChangeUpdateAvailable:
		return "update_available"
	}
	return c.Raw
}

func parseChangeState(phrase string) ChangeState {
	switch phrase {
	case "Latest version.":
		return ChangeState{Kind: ChangeLatest}
	case "Minor edits made since then.":
		return ChangeState{Kind: ChangeMinorEdits}
	case "Update available.":
		return ChangeState{Kind: ChangeUpdateAvailable}
	}
	return ChangeState{Kind: ChangeUnknown, Raw: phrase}
}

// HistoryEntry is a work plus the visit metadata shown on the reading
// history listing.
type HistoryEntry struct {
	Work
	LastVisited time.Time
	Changed     ChangeState
	Visited     int
}

// HistoryPage is one fetched listing page. HasPrevious is false only for
// page 1; both pager flags are derived independently from the pager
// controls.
type HistoryPage struct {
	Entries     []HistoryEntry
	Page        int
	HasNext     bool
	HasPrevious bool
}

// The visit block renders as one free-text run: the last-visited date, a
// change phrase (possibly parenthesized), and a visit count, separated by
// blank lines.
var visitedPattern = regexp.MustCompile(`Last visited:\s*([^\n]+)\s*\n\s*\(?([^\n]+?)\)?\s*\n\s*Visited\s+([^\n]+)`)

// HistoryEntry parses one history blurb: the work record plus the visit
// metadata block.
func (e *Extractor) HistoryEntry(s *goquery.Selection) (*HistoryEntry, error) {
	block, err := selectAllText(s, e.sel.VisitedBlock)
	if err != nil {
		return nil, err
	}

	matches := visitedPattern.FindStringSubmatch(block)
	if matches == nil {
		return nil, fmt.Errorf("%w: visit metadata pattern in %q", ErrNotFound, block)
	}

	work, err := e.Work(s)
	if err != nil {
		return nil, err
	}

	return &HistoryEntry{
		Work:        *work,
		LastVisited: parseDate(matches[1]),
		Changed:     parseChangeState(strings.TrimSpace(matches[2])),
		Visited:     parseVisitCount(strings.TrimSpace(matches[3])),
	}, nil
}

// parseVisitCount maps the archive's phrasing to a count: "once" is 1,
// "<n> times" is n, anything else is 0. It never fails.
func parseVisitCount(text string) int {
	if text == "once" {
		return 1
	}

	fields := strings.Fields(text)
	if len(fields) == 2 && fields[1] == "times" {
		if n, err := parseCount(fields[0]); err == nil {
			return n
		}
	}

	return 0
}

// HistoryPage parses a full fetched document into records plus pager
// flags. One broken record fails the whole page: a single malformed blurb
// usually means the page-wide markup shape drifted, and silently dropping
// it would corrupt the feed without detection.
func (e *Extractor) HistoryPage(doc *goquery.Document, page int) (*HistoryPage, error) {
	records, err := selectAll(doc.Selection, e.sel.Record)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, records.Length())
	var walkErr error
	records.EachWithBreak(func(i int, record *goquery.Selection) bool {
		entry, err := e.HistoryEntry(record)
		if err != nil {
			walkErr = fmt.Errorf("record %d: %w", i, err)
			return false
		}
		entries = append(entries, *entry)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	hasPrevious, err := e.pagerPresent(doc, e.sel.PagerPrevious)
	if err != nil {
		return nil, err
	}
	hasNext, err := e.pagerPresent(doc, e.sel.PagerNext)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Entries:     entries,
		Page:        page,
		HasNext:     hasNext,
		HasPrevious: hasPrevious,
	}, nil
}

// pagerPresent reports whether a pager control exists. Absence is a
// legitimate state, not an error.
func (e *Extractor) pagerPresent(doc *goquery.Document, selector string) (bool, error) {
	_, err := selectOne(doc.Selection, selector)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Feed assembles the page into its catalog feed.
func (p *HistoryPage) Feed() *opds.Feed {
	return opds.Paginated(
		fmt.Sprintf("history-page-%d", p.Page),
		fmt.Sprintf("History page %d", p.Page),
		"history",
		p.Entries,
		p.Page,
		p.HasNext,
		p.HasPrevious,
	)
}
