package ao3

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// The archive publishes languages by their human-readable name. Build a
// reverse index over the English display names once.
var languageTags = func() map[string]language.Tag {
	names := display.English.Languages()
	tags := make(map[string]language.Tag)
	for _, tag := range display.Supported.Tags() {
		name := names.Name(tag)
		if name == "" {
			continue
		}
		tags[strings.ToLower(name)] = tag
	}
	return tags
}()

// LanguageTag maps a language name ("English") to its BCP 47 tag ("en").
// Unrecognized names pass through unchanged.
func LanguageTag(name string) string {
	name = strings.TrimSpace(name)
	if tag, ok := languageTags[strings.ToLower(name)]; ok {
		return tag.String()
	}
	return name
}
