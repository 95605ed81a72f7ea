package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/inkwell-systems/scriptorium/internal/api"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

type fakeSearcher struct {
	owner   string
	results []store.SearchResult
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, ownerID string, _ pgvector.Vector, _ int) ([]store.SearchResult, error) {
	f.owner = ownerID
	return f.results, f.err
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (pgvector.Vector, error) {
	if f.err != nil {
		return pgvector.Vector{}, f.err
	}
	return pgvector.NewVector([]float32{1, 0, 0}), nil
}

func TestSearchHandler_Success(t *testing.T) {
	searcher := &fakeSearcher{results: []store.SearchResult{
		{Content: "matching section", Similarity: 0.92},
	}}
	h := api.NewSearchHandler(searcher, &fakeEmbedder{}, 8000, discard())

	rec := postJSON(t, h.Search, `{"query":"how does ingestion work","limit":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Results []store.SearchResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Similarity != 0.92 {
		t.Errorf("unexpected results: %+v", body.Results)
	}
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	h := api.NewSearchHandler(&fakeSearcher{}, &fakeEmbedder{}, 8000, discard())
	rec := postJSON(t, h.Search, `{"query":"   "}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestSearchHandler_EmbedFailure(t *testing.T) {
	h := api.NewSearchHandler(&fakeSearcher{}, &fakeEmbedder{err: errors.New("model down")}, 8000, discard())
	rec := postJSON(t, h.Search, `{"query":"anything at all"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestSearchHandler_NoMatches(t *testing.T) {
	h := api.NewSearchHandler(&fakeSearcher{}, &fakeEmbedder{}, 8000, discard())
	rec := postJSON(t, h.Search, `{"query":"nothing matches this"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if string(body["results"]) != "[]" {
		t.Errorf("expected empty array, got %s", body["results"])
	}
}
