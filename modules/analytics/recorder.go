package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Event describes one public release-feed request.
type Event struct {
	ID             string    `json:"id"`
	InstallationID string    `json:"installation_id,omitempty"`
	LatestVersion  string    `json:"latest_version,omitempty"`
	ResponseStatus int       `json:"response_status"`
	UserAgent      string    `json:"user_agent,omitempty"`
	RequestedAt    time.Time `json:"requested_at"`
}

// Recorder logs request analytics. Implementations must never fail the
// request they are recording: indexing errors are logged and swallowed.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// OpenSearchRecorder indexes events into an OpenSearch index.
type OpenSearchRecorder struct {
	client *opensearch.Client
	index  string
	log    *slog.Logger
}

func NewOpenSearchRecorder(client *opensearch.Client, index string, log *slog.Logger) *OpenSearchRecorder {
	if log == nil {
		log = slog.Default()
	}
	return &OpenSearchRecorder{client: client, index: index, log: log}
}

func (r *OpenSearchRecorder) Record(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.RequestedAt.IsZero() {
		event.RequestedAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		r.log.WarnContext(ctx, "failed to marshal analytics event", "error", err)
		return
	}

	req := opensearchapi.IndexRequest{
		Index:      r.index,
		DocumentID: event.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		r.log.WarnContext(ctx, "failed to index analytics event", "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		r.log.WarnContext(ctx, "analytics index request rejected", "status", res.Status())
		return
	}

	r.log.DebugContext(ctx, "analytics event recorded",
		"latest_version", event.LatestVersion,
		"installation_id", event.InstallationID,
		"status", event.ResponseStatus,
	)
}

// NoopRecorder discards all events; used when analytics is not configured.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, Event) {}
