package opds

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func testFeed() *Feed {
	return &Feed{
		ID:      "history-page-1",
		Title:   "History page 1",
		Updated: time.Date(2023, time.January, 5, 12, 0, 0, 0, time.UTC),
		Links: []Link{
			{Type: TypeNavigation, Rel: RelSelf, Href: BasePath + "/history?page=1"},
			{Type: TypeNavigation, Rel: RelStart, Href: BasePath + "/catalog"},
		},
		Entries: []Entry{
			{
				ID:      "/works/45678901",
				Updated: time.Date(2023, time.January, 4, 0, 0, 0, 0, time.UTC),
				Title:   "The Long Watch",
				Content: "No Archive Warnings Apply, Alice/Bob\nA quiet story.",
				Authors: []Author{{Name: "sailor", URI: "https://archiveofourown.org/users/sailor"}},
				Links: []Link{
					{Type: TypeEpub, Rel: RelAcquisition, Href: "https://archiveofourown.org/downloads/45678901/a.epub"},
				},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	output, err := testFeed().Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.HasPrefix(output, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Expected XML declaration at the start")
	}
	if !strings.Contains(output, `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opds="http://opds-spec.org/2010/catalog">`) {
		t.Error("Expected Atom feed element with the OPDS namespace")
	}
	if !strings.Contains(output, "<id>history-page-1</id>") {
		t.Error("Expected feed id element")
	}
	if !strings.Contains(output, "<updated>2023-01-05T12:00:00Z</updated>") {
		t.Error("Expected RFC 3339 updated element")
	}
	if !strings.Contains(output, `<link type="application/atom+xml;profile=opds-catalog;kind=navigation" rel="self" href="/opds/v1.2/history?page=1"/>`) {
		t.Error("Expected self navigation link")
	}
	if !strings.Contains(output, `<link type="application/epub+zip" rel="http://opds-spec.org/acquisition" href="https://archiveofourown.org/downloads/45678901/a.epub"/>`) {
		t.Error("Expected epub acquisition link")
	}
	if !strings.Contains(output, "<name>sailor</name>") {
		t.Error("Expected author name element")
	}
	if !strings.HasSuffix(output, "</feed>") {
		t.Error("Expected closing feed element")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	feed := testFeed()

	first, err := feed.Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := feed.Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first != second {
		t.Error("Expected identical output for repeated builds of the same feed")
	}
}

func TestBuildOutputParsesAsAtom(t *testing.T) {
	output, err := testFeed().Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	parsed, err := gofeed.NewParser().ParseString(output)
	if err != nil {
		t.Fatalf("Expected generated feed to parse, got: %v", err)
	}

	if parsed.FeedType != "atom" {
		t.Errorf("Expected atom feed type, got '%s'", parsed.FeedType)
	}
	if parsed.Title != "History page 1" {
		t.Errorf("Unexpected parsed title: '%s'", parsed.Title)
	}
	if len(parsed.Items) != 1 {
		t.Fatalf("Expected 1 parsed item, got %d", len(parsed.Items))
	}

	item := parsed.Items[0]
	if item.GUID != "/works/45678901" {
		t.Errorf("Unexpected parsed item id: '%s'", item.GUID)
	}
	if item.Title != "The Long Watch" {
		t.Errorf("Unexpected parsed item title: '%s'", item.Title)
	}
	if len(item.Authors) != 1 || item.Authors[0].Name != "sailor" {
		t.Errorf("Unexpected parsed authors: %+v", item.Authors)
	}
}

func TestBuildRewritesContentNewlines(t *testing.T) {
	output, err := testFeed().Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(output, "No Archive Warnings Apply, Alice/Bob<br/>A quiet story.") {
		t.Error("Expected content newline to be rewritten to <br/>")
	}
}

func TestBuildEmptyContent(t *testing.T) {
	feed := testFeed()
	feed.Entries[0].Content = ""

	output, err := feed.Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(output, "<content/>") {
		t.Error("Expected an empty content element")
	}
}

func TestBuildEscapesMarkup(t *testing.T) {
	feed := testFeed()
	feed.Entries[0].Title = `Sword & Sorcery <3`
	feed.Entries[0].Content = `tags: "A & B"`
	feed.Links[0].Href = "/opds/v1.2/history?page=1&extra=<x>"

	output, err := feed.Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(output, "<title>Sword &amp; Sorcery &lt;3</title>") {
		t.Errorf("Expected escaped entry title, got:\n%s", output)
	}
	if !strings.Contains(output, "tags: &#34;A &amp; B&#34;") {
		t.Errorf("Expected escaped content, got:\n%s", output)
	}
	if !strings.Contains(output, `href="/opds/v1.2/history?page=1&amp;extra=&lt;x&gt;"`) {
		t.Errorf("Expected escaped link attribute, got:\n%s", output)
	}
}

func TestBuildRejectsEntryWithoutID(t *testing.T) {
	feed := testFeed()
	feed.Entries[0].ID = ""

	_, err := feed.Build()
	if err == nil {
		t.Fatal("Expected an error for an entry without an id")
	}
}
