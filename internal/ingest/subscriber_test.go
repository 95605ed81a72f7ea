package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/inkwell-systems/scriptorium/internal/ingest"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

type fakeCreator struct {
	created []store.DocumentCreateInput
	err     error
}

func (f *fakeCreator) Create(_ context.Context, input store.DocumentCreateInput) (*store.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	return &store.Document{
		ID:          uuid.New(),
		Name:        input.Name,
		OwnerID:     input.OwnerID,
		StoragePath: input.StoragePath,
	}, nil
}

type fakeNotifier struct {
	notified []uuid.UUID
}

func (f *fakeNotifier) NotifyProcess(documentID uuid.UUID) {
	f.notified = append(f.notified, documentID)
}

func newSubscriber(bucket string, creator *fakeCreator, notifier *fakeNotifier) *ingest.Subscriber {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ingest.NewSubscriber(nil, bucket, creator, notifier, logger)
}

func TestSubscriber_IgnoresOtherBuckets(t *testing.T) {
	creator := &fakeCreator{}
	notifier := &fakeNotifier{}
	s := newSubscriber("documents", creator, notifier)

	err := s.Ingest(context.Background(), ingest.ObjectEvent{
		Bucket:  "avatars",
		Path:    "u1/photo.png",
		OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(creator.created) != 0 {
		t.Error("no document row may be created for an unmonitored bucket")
	}
	if len(notifier.notified) != 0 {
		t.Error("no downstream call may be made for an unmonitored bucket")
	}
}

func TestSubscriber_IngestsMonitoredBucket(t *testing.T) {
	creator := &fakeCreator{}
	notifier := &fakeNotifier{}
	s := newSubscriber("documents", creator, notifier)

	err := s.Ingest(context.Background(), ingest.ObjectEvent{
		Bucket:  "documents",
		Path:    "u1/reports/q3.md",
		OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(creator.created) != 1 {
		t.Fatalf("expected 1 document created, got %d", len(creator.created))
	}
	got := creator.created[0]
	if got.Name != "q3.md" {
		t.Errorf("expected name derived from path, got %q", got.Name)
	}
	if got.OwnerID != "u1" || got.StoragePath != "u1/reports/q3.md" {
		t.Errorf("unexpected document input: %+v", got)
	}
	if len(notifier.notified) != 1 {
		t.Fatalf("expected 1 processing notification, got %d", len(notifier.notified))
	}
}

func TestSubscriber_ExplicitNameWins(t *testing.T) {
	creator := &fakeCreator{}
	notifier := &fakeNotifier{}
	s := newSubscriber("documents", creator, notifier)

	_ = s.Ingest(context.Background(), ingest.ObjectEvent{
		Bucket:  "documents",
		Path:    "u1/5f2c9a.md",
		Name:    "Quarterly Report.md",
		OwnerID: "u1",
	})

	if len(creator.created) != 1 || creator.created[0].Name != "Quarterly Report.md" {
		t.Errorf("expected explicit name to be kept, got %+v", creator.created)
	}
}

func TestSubscriber_CreateFailureSkipsNotify(t *testing.T) {
	creator := &fakeCreator{err: errors.New("insert failed")}
	notifier := &fakeNotifier{}
	s := newSubscriber("documents", creator, notifier)

	err := s.Ingest(context.Background(), ingest.ObjectEvent{
		Bucket:  "documents",
		Path:    "u1/doc.md",
		OwnerID: "u1",
	})
	if err == nil {
		t.Fatal("expected create failure to surface")
	}
	if len(notifier.notified) != 0 {
		t.Error("processing must not be notified when the document row was not created")
	}
}

func TestSubscriber_Matches(t *testing.T) {
	s := newSubscriber("documents", &fakeCreator{}, &fakeNotifier{})

	tests := []struct {
		event ingest.ObjectEvent
		want  bool
	}{
		{ingest.ObjectEvent{Bucket: "documents", Path: "a/b.md"}, true},
		{ingest.ObjectEvent{Bucket: "Documents", Path: "a/b.md"}, false},
		{ingest.ObjectEvent{Bucket: "avatars", Path: "a/b.png"}, false},
		{ingest.ObjectEvent{Bucket: "documents", Path: ""}, false},
	}
	for _, tt := range tests {
		if got := s.Matches(tt.event); got != tt.want {
			t.Errorf("Matches(%+v) = %v, want %v", tt.event, got, tt.want)
		}
	}
}
