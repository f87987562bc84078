package ao3

import "testing"

func TestLanguageTag(t *testing.T) {
	if tag := LanguageTag("English"); tag != "en" {
		t.Errorf("Expected 'en', got '%s'", tag)
	}
	if tag := LanguageTag("German"); tag != "de" {
		t.Errorf("Expected 'de', got '%s'", tag)
	}
	if tag := LanguageTag("japanese"); tag != "ja" {
		t.Errorf("Expected case-insensitive lookup to yield 'ja', got '%s'", tag)
	}
	if tag := LanguageTag("  French  "); tag != "fr" {
		t.Errorf("Expected surrounding whitespace to be ignored, got '%s'", tag)
	}
}

func TestLanguageTagUnknownNamePassesThrough(t *testing.T) {
	if tag := LanguageTag("Quenya"); tag != "Quenya" {
		t.Errorf("Expected unknown name to pass through, got '%s'", tag)
	}
	if tag := LanguageTag(""); tag != "" {
		t.Errorf("Expected empty name to stay empty, got '%s'", tag)
	}
}
