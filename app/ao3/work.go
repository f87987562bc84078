package ao3

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mkurdin/readfeed/app/opds"
)

// BaseURL is the upstream archive root. Acquisition links are absolute
// because catalog clients download epubs straight from the archive.
const BaseURL = "https://archiveofourown.org"

// sentinelTime is the fallback for unparsable upstream dates, so
// downstream sorting over timestamps stays defined.
var sentinelTime = time.Unix(0, 0).UTC()

type Author struct {
	Name string
	URI  string
}

// Tags carries the archive's tag groups for one work. Warning is always
// present upstream; the list groups may each be empty.
type Tags struct {
	Warning       string
	Relationships []string
	Characters    []string
	Freeforms     []string
}

type SeriesRef struct {
	Name string
	URI  string
	Part int
}

// Chapters is the published chapter state. Total is only meaningful when
// TotalKnown is set; the archive renders "?" for works without a planned
// chapter count.
type Chapters struct {
	Written    int
	Total      int
	TotalKnown bool
}

type Work struct {
	ID          int64
	Title       string
	Authors     []Author
	Tags        Tags
	Summary     string
	Series      *SeriesRef
	LastUpdated time.Time
	Language    string
	Words       int
	Chapters    Chapters
	Comments    int
	Kudos       int
	Bookmarks   int
	Hits        int
}

// Extractor converts blurb markup fragments into typed records using one
// selector set.
type Extractor struct {
	sel Selectors
}

func NewExtractor(sel Selectors) *Extractor {
	return &Extractor{sel: sel}
}

// Work parses one blurb fragment. A failure on any required field fails
// the whole record; the enumerated optional fields (series, bookmarks,
// authors) resolve to defaults instead.
func (e *Extractor) Work(s *goquery.Selection) (*Work, error) {
	heading, err := selectOne(s, e.sel.Heading)
	if err != nil {
		return nil, err
	}

	title, err := selectFirstText(heading, e.sel.TitleLink)
	if err != nil {
		return nil, err
	}

	href, err := selectAttr(heading, e.sel.TitleLink, "href")
	if err != nil {
		return nil, err
	}

	id, err := workID(href)
	if err != nil {
		return nil, err
	}

	authors, err := e.authors(heading)
	if err != nil {
		return nil, err
	}

	updatedText, err := selectFirstText(s, e.sel.Datetime)
	if err != nil {
		return nil, err
	}

	tagList, err := selectOne(s, e.sel.TagList)
	if err != nil {
		return nil, err
	}
	tags, err := e.tags(tagList)
	if err != nil {
		return nil, err
	}

	summary, err := selectFirstText(s, e.sel.Summary)
	if err != nil {
		return nil, err
	}

	chapters, err := e.chapters(s)
	if err != nil {
		return nil, err
	}

	language, err := selectFirstText(s, e.sel.Language)
	if err != nil {
		return nil, err
	}

	words, err := selectInt(s, e.sel.Words)
	if err != nil {
		return nil, err
	}

	comments, err := selectInt(s, e.sel.Comments)
	if err != nil {
		return nil, err
	}

	kudos, err := selectInt(s, e.sel.Kudos)
	if err != nil {
		return nil, err
	}

	// The archive omits the bookmarks node entirely for zero-bookmark
	// works, so absence resolves to 0. Any other failure is still fatal.
	bookmarks, err := selectInt(s, e.sel.Bookmarks)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		bookmarks = 0
	}

	hits, err := selectInt(s, e.sel.Hits)
	if err != nil {
		return nil, err
	}

	return &Work{
		ID:          id,
		Title:       title,
		Authors:     authors,
		Tags:        tags,
		Summary:     summary,
		Series:      e.series(s),
		LastUpdated: parseDate(updatedText),
		Language:    language,
		Words:       words,
		Chapters:    chapters,
		Comments:    comments,
		Kudos:       kudos,
		Bookmarks:   bookmarks,
		Hits:        hits,
	}, nil
}

// authors collects every author link in the heading. Zero authors is a
// legitimate state (orphaned or anonymous works); callers decide whether
// that matters.
func (e *Extractor) authors(heading *goquery.Selection) ([]Author, error) {
	links, err := selectAll(heading, e.sel.AuthorLink)
	if err != nil {
		return nil, err
	}

	var authors []Author
	var walkErr error
	links.EachWithBreak(func(_ int, link *goquery.Selection) bool {
		name, err := firstText(link)
		if err != nil {
			walkErr = fmt.Errorf("author link: %w", err)
			return false
		}
		uri, _ := link.Attr("href")
		authors = append(authors, Author{Name: name, URI: uri})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return authors, nil
}

func (e *Extractor) tags(tagList *goquery.Selection) (Tags, error) {
	warning, err := selectFirstText(tagList, e.sel.Warning)
	if err != nil {
		return Tags{}, err
	}

	relationships, err := e.tagGroup(tagList, e.sel.Relationships)
	if err != nil {
		return Tags{}, err
	}
	characters, err := e.tagGroup(tagList, e.sel.Characters)
	if err != nil {
		return Tags{}, err
	}
	freeforms, err := e.tagGroup(tagList, e.sel.Freeforms)
	if err != nil {
		return Tags{}, err
	}

	return Tags{
		Warning:       warning,
		Relationships: relationships,
		Characters:    characters,
		Freeforms:     freeforms,
	}, nil
}

func (e *Extractor) tagGroup(tagList *goquery.Selection, selector string) ([]string, error) {
	items, err := selectAll(tagList, selector)
	if err != nil {
		return nil, err
	}

	var labels []string
	var walkErr error
	items.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		label, err := selectFirstText(item, e.sel.TagLink)
		if err != nil {
			walkErr = fmt.Errorf("tag %q: %w", selector, err)
			return false
		}
		labels = append(labels, label)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return labels, nil
}

func (e *Extractor) chapters(s *goquery.Selection) (Chapters, error) {
	text, err := selectAllText(s, e.sel.Chapters)
	if err != nil {
		return Chapters{}, err
	}

	written, total, found := strings.Cut(text, "/")
	if !found {
		return Chapters{}, fmt.Errorf("%w: %q: no chapter separator in %q", ErrNotNumeric, e.sel.Chapters, text)
	}

	writtenCount, err := parseCount(written)
	if err != nil {
		return Chapters{}, fmt.Errorf("%w: chapters written in %q", ErrNotNumeric, text)
	}

	// The archive renders "?" when the total chapter count is
	// undetermined; that is a normal state, not an error.
	totalCount, err := parseCount(total)
	if err != nil {
		return Chapters{Written: writtenCount}, nil
	}

	return Chapters{Written: writtenCount, Total: totalCount, TotalKnown: true}, nil
}

// series is tolerant: no series container means no series, and a
// present-but-malformed series block is treated the same way. The latter
// is logged so selector drift stays observable.
func (e *Extractor) series(s *goquery.Selection) *SeriesRef {
	container, err := selectOne(s, e.sel.Series)
	if err != nil {
		return nil
	}

	ref, err := e.seriesRef(container)
	if err != nil {
		slog.Debug("Discarding malformed series block", "error", err)
		return nil
	}

	return ref
}

func (e *Extractor) seriesRef(container *goquery.Selection) (*SeriesRef, error) {
	part, err := selectInt(container, e.sel.SeriesPart)
	if err != nil {
		return nil, err
	}

	name, err := selectFirstText(container, e.sel.SeriesLink)
	if err != nil {
		return nil, err
	}

	uri, err := selectAttr(container, e.sel.SeriesLink, "href")
	if err != nil {
		return nil, err
	}

	return &SeriesRef{Name: name, URI: uri, Part: part}, nil
}

// workID derives the stable numeric identifier from the trailing path
// segment of the work's canonical link. The id is load-bearing for
// acquisition links, so a parse failure fails the record.
func workID(href string) (int64, error) {
	segment := path.Base(strings.TrimSuffix(href, "/"))
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: work id in %q", ErrNotNumeric, href)
	}
	return id, nil
}

// parseDate parses the archive's "02 Jan 2006" dates. Unparsable dates
// fall back to the epoch sentinel instead of failing the record.
func parseDate(text string) time.Time {
	text = strings.TrimSpace(text)
	for _, layout := range []string{"02 Jan 2006", "2 Jan 2006"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC()
		}
	}
	return sentinelTime
}

func firstLabel(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}

// TagLine renders the short tag summary shown in entry content: the
// warning and the first relationship, character and freeform label, blank
// where a group is empty.
func (w Work) TagLine() string {
	return strings.Join([]string{
		w.Tags.Warning,
		firstLabel(w.Tags.Relationships),
		firstLabel(w.Tags.Characters),
		firstLabel(w.Tags.Freeforms),
	}, ", ")
}

// OpdsEntry maps a work onto a catalog entry. The mapping is stable: the
// same work always yields identical link hrefs and content text.
func (w Work) OpdsEntry() opds.Entry {
	authors := make([]opds.Author, 0, len(w.Authors))
	for _, author := range w.Authors {
		uri := author.URI
		if uri != "" && strings.HasPrefix(uri, "/") {
			uri = BaseURL + uri
		}
		authors = append(authors, opds.Author{Name: author.Name, URI: uri})
	}

	return opds.Entry{
		ID:      fmt.Sprintf("/works/%d", w.ID),
		Updated: w.LastUpdated,
		Title:   w.Title,
		Content: w.TagLine() + "\n" + w.Summary,
		Authors: authors,
		Links: []opds.Link{
			{
				Type: opds.TypeEpub,
				Rel:  opds.RelAcquisition,
				Href: fmt.Sprintf("%s/downloads/%d/a.epub", BaseURL, w.ID),
			},
		},
	}
}
