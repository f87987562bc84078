package opds

import (
	"fmt"
	"time"
)

// BasePath is the URL prefix under which all catalog routes are served.
const BasePath = "/opds/v1.2"

// ContentType is the media type feeds are served with.
const ContentType = "application/atom+xml;profile=opds-catalog;kind=navigation"

// EntryConvertible is implemented by domain records that can appear in a
// feed.
type EntryConvertible interface {
	OpdsEntry() Entry
}

// Feed is the document model rendered to Atom+OPDS. Updated is the
// generation time, set when the feed is assembled, so rendering the same
// Feed value twice yields identical output.
type Feed struct {
	ID      string
	Title   string
	Updated time.Time
	Links   []Link
	Entries []Entry
}

func NewFeed(id, title string, links []Link, entries []Entry) *Feed {
	return &Feed{
		ID:      id,
		Title:   title,
		Updated: time.Now().In(time.Local),
		Links:   links,
		Entries: entries,
	}
}

// Paginated assembles one listing page into a feed. Entries keep the
// source order. Navigation links are emitted in a fixed order: self,
// start, previous (only when hasPrev), next (only when hasNext).
func Paginated[T EntryConvertible](id, title, section string, items []T, page int, hasNext, hasPrev bool) *Feed {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.OpdsEntry())
	}

	links := []Link{
		{
			Type: TypeNavigation,
			Rel:  RelSelf,
			Href: fmt.Sprintf("%s/%s?page=%d", BasePath, section, page),
		},
		{
			Type: TypeNavigation,
			Rel:  RelStart,
			Href: BasePath + "/catalog",
		},
	}

	if hasPrev {
		links = append(links, Link{
			Type: TypeNavigation,
			Rel:  RelPrevious,
			Href: fmt.Sprintf("%s/%s?page=%d", BasePath, section, page-1),
		})
	}

	if hasNext {
		links = append(links, Link{
			Type: TypeNavigation,
			Rel:  RelNext,
			Href: fmt.Sprintf("%s/%s?page=%d", BasePath, section, page+1),
		})
	}

	return NewFeed(id, title, links, entries)
}
