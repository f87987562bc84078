package ao3

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Typed query helpers over goquery selections. Each helper fails
// explicitly when the markup does not match, naming the selector (or
// attribute) that missed, so a layout drift shows up in the error text.

func compileSelector(selector string) (cascadia.Selector, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadSelector, selector, err)
	}
	return matcher, nil
}

// selectOne returns the first node matching selector.
func selectOne(s *goquery.Selection, selector string) (*goquery.Selection, error) {
	matcher, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}

	found := s.FindMatcher(matcher)
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, selector)
	}

	return found.First(), nil
}

// selectAll returns every node matching selector. An empty result is not
// an error.
func selectAll(s *goquery.Selection, selector string) (*goquery.Selection, error) {
	matcher, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	return s.FindMatcher(matcher), nil
}

// selectFirstText returns the first text node under the first match,
// skipping nested element markup.
func selectFirstText(s *goquery.Selection, selector string) (string, error) {
	found, err := selectOne(s, selector)
	if err != nil {
		return "", err
	}
	return firstText(found)
}

// selectAllText returns the concatenated text of the first match.
func selectAllText(s *goquery.Selection, selector string) (string, error) {
	found, err := selectOne(s, selector)
	if err != nil {
		return "", err
	}
	return found.Text(), nil
}

// selectAttr returns an attribute value of the first match.
func selectAttr(s *goquery.Selection, selector, attr string) (string, error) {
	found, err := selectOne(s, selector)
	if err != nil {
		return "", err
	}

	value, ok := found.Attr(attr)
	if !ok {
		return "", fmt.Errorf("%w: %q on %q", ErrAttrMissing, attr, selector)
	}

	return value, nil
}

// selectInt parses the concatenated text of the first match as an
// integer, tolerating thousands separators ("1,234").
func selectInt(s *goquery.Selection, selector string) (int, error) {
	text, err := selectAllText(s, selector)
	if err != nil {
		return 0, err
	}

	n, err := parseCount(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %q", ErrNotNumeric, selector, text)
	}

	return n, nil
}

func parseCount(text string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	return strconv.Atoi(cleaned)
}

func firstText(s *goquery.Selection) (string, error) {
	for _, node := range s.Nodes {
		if text, ok := firstTextNode(node); ok {
			return text, nil
		}
	}
	return "", ErrNoText
}

// firstTextNode walks depth-first for the first non-blank text node.
func firstTextNode(node *html.Node) (string, bool) {
	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text == "" {
			return "", false
		}
		return text, true
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if text, ok := firstTextNode(child); ok {
			return text, true
		}
	}
	return "", false
}
