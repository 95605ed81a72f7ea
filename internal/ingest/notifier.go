package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ProcessNotifier POSTs new document ids to the processing endpoint. Calls
// are asynchronous with respect to the caller; failures are only logged.
type ProcessNotifier struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *slog.Logger
}

// NewProcessNotifier creates a notifier for the given processing endpoint.
func NewProcessNotifier(endpoint, token string, logger *slog.Logger) *ProcessNotifier {
	return &ProcessNotifier{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 5 * time.Minute},
		logger:   logger,
	}
}

// NotifyProcess fires the processing call in a goroutine and returns
// immediately.
func (n *ProcessNotifier) NotifyProcess(documentID uuid.UUID) {
	go func() {
		if err := n.post(context.Background(), documentID); err != nil {
			n.logger.Error("processing call failed", "document_id", documentID, "error", err)
		}
	}()
}

func (n *ProcessNotifier) post(ctx context.Context, documentID uuid.UUID) error {
	if n.endpoint == "" {
		return fmt.Errorf("processing endpoint not configured")
	}

	body, err := json.Marshal(map[string]string{"document_id": documentID.String()})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling processing endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("processing endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
