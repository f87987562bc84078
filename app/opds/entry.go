package opds

import (
	"time"
)

// Author is a feed-level or entry-level author. URI is the author's
// profile page and may be empty.
type Author struct {
	Name string
	URI  string
}

type Entry struct {
	ID      string
	Updated time.Time
	Title   string
	Content string
	Authors []Author
	Links   []Link
}
