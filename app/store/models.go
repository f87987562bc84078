package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkurdin/readfeed/app/opds"
)

// WorkRecord is one archived work: the bibliographic fields needed to
// rebuild a catalog entry, plus visit bookkeeping. The tag line is stored
// pre-composed so archive entries render byte-identical to live ones.
type WorkRecord struct {
	ID              int64
	Title           string
	Authors         []string
	TagLine         string
	Summary         string
	Language        string
	Words           int
	ChaptersWritten int
	ChaptersTotal   *int
	Comments        int
	Kudos           int
	Bookmarks       int
	Hits            int
	SeriesName      string
	SeriesPart      int
	UpdatedAt       time.Time
	LastVisited     time.Time
	ChangeState     string
	VisitCount      int
	FirstSeenAt     time.Time
	LastSeenAt      time.Time
}

// Stats summarizes the archive for the stats endpoint.
type Stats struct {
	Works     int
	Visits    int
	Languages map[string]int
}

const archiveBaseURL = "https://archiveofourown.org"

func (w WorkRecord) OpdsEntry() opds.Entry {
	authors := make([]opds.Author, 0, len(w.Authors))
	for _, name := range w.Authors {
		authors = append(authors, opds.Author{Name: name})
	}

	return opds.Entry{
		ID:      fmt.Sprintf("/works/%d", w.ID),
		Updated: w.UpdatedAt,
		Title:   w.Title,
		Content: w.TagLine + "\n" + w.Summary,
		Authors: authors,
		Links: []opds.Link{
			{
				Type: opds.TypeEpub,
				Rel:  opds.RelAcquisition,
				Href: fmt.Sprintf("%s/downloads/%d/a.epub", archiveBaseURL, w.ID),
			},
		},
	}
}

// Author names are stored newline-joined; names cannot contain newlines.
func joinAuthors(names []string) string {
	return strings.Join(names, "\n")
}

func splitAuthors(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}
