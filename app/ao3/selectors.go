package ao3

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors addresses every markup fragment the extractor reads. The
// defaults match the current AO3 layout; individual selectors can be
// overridden from a YAML file, which is the expected patch point when the
// upstream markup drifts.
type Selectors struct {
	Record  string `yaml:"record"`
	Heading string `yaml:"heading"`

	TitleLink  string `yaml:"title_link"`
	AuthorLink string `yaml:"author_link"`
	Datetime   string `yaml:"datetime"`
	Summary    string `yaml:"summary"`

	TagList       string `yaml:"tag_list"`
	Warning       string `yaml:"warning"`
	Relationships string `yaml:"relationships"`
	Characters    string `yaml:"characters"`
	Freeforms     string `yaml:"freeforms"`
	TagLink       string `yaml:"tag_link"`

	Series     string `yaml:"series"`
	SeriesPart string `yaml:"series_part"`
	SeriesLink string `yaml:"series_link"`

	Language  string `yaml:"language"`
	Words     string `yaml:"words"`
	Chapters  string `yaml:"chapters"`
	Comments  string `yaml:"comments"`
	Kudos     string `yaml:"kudos"`
	Bookmarks string `yaml:"bookmarks"`
	Hits      string `yaml:"hits"`

	VisitedBlock  string `yaml:"visited_block"`
	PagerPrevious string `yaml:"pager_previous"`
	PagerNext     string `yaml:"pager_next"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Record:  "ol.reading.index > li.reading.blurb",
		Heading: "h4.heading",

		TitleLink:  "a",
		AuthorLink: `a[rel="author"]`,
		Datetime:   "div > p.datetime",
		Summary:    "blockquote.summary",

		TagList:       "ul.tags",
		Warning:       "li.warnings > strong > a",
		Relationships: "li.relationships",
		Characters:    "li.characters",
		Freeforms:     "li.freeforms",
		TagLink:       "a",

		Series:     "ul.series",
		SeriesPart: "li > strong",
		SeriesLink: "a",

		Language:  "dl.stats > dd.language",
		Words:     "dl.stats > dd.words",
		Chapters:  "dl.stats > dd.chapters",
		Comments:  "dl.stats > dd.comments > a",
		Kudos:     "dl.stats > dd.kudos > a",
		Bookmarks: "dl.stats > dd.bookmarks > a",
		Hits:      "dl.stats > dd.hits",

		VisitedBlock:  "div.user > h4",
		PagerPrevious: "ol.pagination > li.previous > a",
		PagerNext:     "ol.pagination > li.next > a",
	}
}

// LoadSelectors reads selector overrides from a YAML file and merges them
// over the defaults. Keys left out of the file keep their default.
func LoadSelectors(path string) (Selectors, error) {
	selectors := DefaultSelectors()

	data, err := os.ReadFile(path)
	if err != nil {
		return selectors, fmt.Errorf("failed to read selectors file: %w", err)
	}

	if err := yaml.Unmarshal(data, &selectors); err != nil {
		return selectors, fmt.Errorf("failed to parse selectors file: %w", err)
	}

	return selectors, nil
}
