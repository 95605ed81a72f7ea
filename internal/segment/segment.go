// Package segment splits markdown documents into sections for storage.
package segment

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Segmenter splits document text into section-sized chunks.
type Segmenter struct {
	splitter textsplitter.TextSplitter
}

// New creates a Segmenter with the given chunk size and overlap (in
// characters).
func New(chunkSize, chunkOverlap int) *Segmenter {
	return &Segmenter{
		splitter: textsplitter.NewMarkdownTextSplitter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Segment splits text into sections, dropping empty chunks.
func (s *Segmenter) Segment(text string) ([]string, error) {
	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	sections := make([]string, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c != "" {
			sections = append(sections, c)
		}
	}
	return sections, nil
}
