package segment_test

import (
	"strings"
	"testing"

	"github.com/inkwell-systems/scriptorium/internal/segment"
)

const doc = `# Architecture

The service ingests markdown documents from object storage.

## Processing

Each upload is split into sections and stored with a null embedding.

## Embedding

A batch job fills in the vectors afterwards.
`

func TestSegment(t *testing.T) {
	s := segment.New(120, 0)

	sections, err := s.Segment(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) < 2 {
		t.Fatalf("expected the document to split into multiple sections, got %d", len(sections))
	}

	joined := strings.Join(sections, "\n")
	for _, phrase := range []string{"ingests markdown", "null embedding", "fills in the vectors"} {
		if !strings.Contains(joined, phrase) {
			t.Errorf("expected sections to retain %q", phrase)
		}
	}

	for i, sec := range sections {
		if strings.TrimSpace(sec) == "" {
			t.Errorf("section %d is empty", i)
		}
	}
}

func TestSegment_ShortDocumentIsOneSection(t *testing.T) {
	s := segment.New(1500, 100)

	sections, err := s.Segment("Just one short paragraph.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 1 {
		t.Errorf("expected 1 section, got %d: %v", len(sections), sections)
	}
}
