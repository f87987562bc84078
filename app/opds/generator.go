package opds

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
)

// Build renders the feed to Atom+OPDS XML. Element order is fixed: id,
// title, updated, links, entries; within an entry: title, id, updated,
// content, author block, links.
func (f *Feed) Build() (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opds="http://opds-spec.org/2010/catalog">`)
	buf.WriteString("\n")

	writeElement(&buf, "id", f.ID, 2)
	writeElement(&buf, "title", f.Title, 2)
	writeElement(&buf, "updated", f.Updated.Format(time.RFC3339), 2)

	for _, link := range f.Links {
		writeLink(&buf, link, 2)
	}

	for i := range f.Entries {
		if err := writeEntry(&buf, &f.Entries[i]); err != nil {
			return "", fmt.Errorf("failed to render entry %q: %w", f.Entries[i].ID, err)
		}
	}

	buf.WriteString("</feed>")

	return buf.String(), nil
}

func writeEntry(buf *bytes.Buffer, e *Entry) error {
	if e.ID == "" {
		return fmt.Errorf("entry has no id")
	}

	buf.WriteString("  <entry>\n")

	writeElement(buf, "title", e.Title, 4)
	writeElement(buf, "id", e.ID, 4)
	writeElement(buf, "updated", e.Updated.Format(time.RFC3339), 4)

	// An entry without content still carries an empty content element.
	if e.Content == "" {
		buf.WriteString("    <content/>\n")
	} else {
		buf.WriteString("    <content>")
		buf.WriteString(escapeContent(e.Content))
		buf.WriteString("</content>\n")
	}

	if len(e.Authors) > 0 {
		buf.WriteString("    <author>\n")
		for _, author := range e.Authors {
			writeElement(buf, "name", author.Name, 6)
			if author.URI != "" {
				writeElement(buf, "uri", author.URI, 6)
			}
		}
		buf.WriteString("    </author>\n")
	}

	for _, link := range e.Links {
		writeLink(buf, link, 4)
	}

	buf.WriteString("  </entry>\n")

	return nil
}

func writeLink(buf *bytes.Buffer, link Link, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteString(fmt.Sprintf("<link type=\"%s\" rel=\"%s\" href=\"%s\"/>\n",
		html.EscapeString(link.Type.String()),
		html.EscapeString(link.Rel.String()),
		html.EscapeString(link.Href)))
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// escapeContent escapes the content body and rewrites literal newlines to
// <br/> so multi-line summaries survive catalog clients that render
// content as HTML.
func escapeContent(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>")
}
