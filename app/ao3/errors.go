package ao3

import (
	"errors"
)

// Selector/shape errors signal that the upstream markup no longer matches
// the layout the extractor expects. They are fatal to the enclosing
// record and, transitively, to the enclosing page.
var (
	// ErrBadSelector marks a malformed selector string. Always a
	// programming (or selector-override) error, never a data error.
	ErrBadSelector = errors.New("bad selector")
	// ErrNotFound means no node matched a required selector.
	ErrNotFound = errors.New("no element matched")
	// ErrNoText means a matched node carries no text content.
	ErrNoText = errors.New("no text content")
	// ErrAttrMissing means a matched node lacks a required attribute.
	ErrAttrMissing = errors.New("attribute missing")
	// ErrNotNumeric means a matched node's text did not parse as an integer.
	ErrNotNumeric = errors.New("not numeric")
)

// ErrLoginFailed is returned when AO3 rejects the configured credentials.
var ErrLoginFailed = errors.New("invalid username or password")
