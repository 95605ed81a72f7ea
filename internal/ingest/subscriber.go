package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/inkwell-systems/scriptorium/internal/metrics"
	"github.com/inkwell-systems/scriptorium/internal/store"
)

// SubjectObjectCreated is the subject storage publishes object writes on.
const SubjectObjectCreated = "storage.object.created"

// ObjectEvent is the storage-write event payload.
type ObjectEvent struct {
	ID      string `json:"id"`
	Bucket  string `json:"bucket"`
	Path    string `json:"path"`
	Name    string `json:"name,omitempty"`
	OwnerID string `json:"owner_id"`
}

// DocumentCreator persists new document records.
type DocumentCreator interface {
	Create(ctx context.Context, input store.DocumentCreateInput) (*store.Document, error)
}

// Notifier kicks off downstream processing for a document.
type Notifier interface {
	NotifyProcess(documentID uuid.UUID)
}

// Subscriber listens for storage object-created events, filters them by
// bucket, and creates document records.
type Subscriber struct {
	client    *Client
	bucket    string
	documents DocumentCreator
	notifier  Notifier
	logger    *slog.Logger
	sub       *nats.Subscription
}

// NewSubscriber creates a storage event subscriber watching a single bucket.
func NewSubscriber(client *Client, bucket string, documents DocumentCreator, notifier Notifier, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		client:    client,
		bucket:    bucket,
		documents: documents,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start subscribes to the object-created subject. It prefers a durable
// JetStream consumer and falls back to core NATS when the stream is absent.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.client.js.Subscribe(SubjectObjectCreated, s.handleObjectCreated,
		nats.Durable("scriptorium-ingest"),
		nats.DeliverAll(),
		nats.AckExplicit(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		s.logger.Warn("JetStream subscribe failed, using core NATS", "subject", SubjectObjectCreated, "error", err)
		sub, err = s.client.conn.Subscribe(SubjectObjectCreated, s.handleObjectCreated)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", SubjectObjectCreated, err)
		}
	}
	s.sub = sub
	s.logger.Info("subscribed to storage events", "subject", SubjectObjectCreated, "bucket", s.bucket)
	return nil
}

// Stop unsubscribes from the event subject.
func (s *Subscriber) Stop() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
}

func (s *Subscriber) handleObjectCreated(msg *nats.Msg) {
	defer s.ack(msg)

	var event ObjectEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("failed to parse storage event", "error", err, "subject", msg.Subject)
		return
	}

	if err := s.Ingest(context.Background(), event); err != nil {
		s.logger.Error("ingesting storage object failed", "bucket", event.Bucket, "path", event.Path, "error", err)
	}
}

// Ingest creates a document for an object event and fires the downstream
// processing call. Events for other buckets are ignored.
func (s *Subscriber) Ingest(ctx context.Context, event ObjectEvent) error {
	if !s.Matches(event) {
		s.logger.Debug("ignoring event for unmonitored bucket", "bucket", event.Bucket)
		return nil
	}

	name := event.Name
	if name == "" {
		name = path.Base(event.Path)
	}

	doc, err := s.documents.Create(ctx, store.DocumentCreateInput{
		Name:        name,
		OwnerID:     event.OwnerID,
		StoragePath: event.Path,
	})
	if err != nil {
		return fmt.Errorf("creating document for %s/%s: %w", event.Bucket, event.Path, err)
	}
	metrics.DocumentsIngested.Inc()
	s.logger.Info("document created", "id", doc.ID, "name", doc.Name, "owner", doc.OwnerID)

	// Fire and forget: processing failures surface in the processor's own
	// logs, never back to the upload.
	s.notifier.NotifyProcess(doc.ID)
	return nil
}

// Matches reports whether an event targets the monitored bucket and names an
// object.
func (s *Subscriber) Matches(event ObjectEvent) bool {
	return event.Bucket == s.bucket && event.Path != ""
}

func (s *Subscriber) ack(msg *nats.Msg) {
	if msg.Reply != "" {
		_ = msg.Ack()
	}
}
