package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"search-backend/usecase"
)

// RecordChangedPayload is the payload of RecordUpserted and RecordDeleted
// events.
type RecordChangedPayload struct {
	ContentType string `json:"content_type"`
	RecordID    string `json:"record_id"`
}

// RecordEventHandler applies single-record index updates from the stream.
// Events are processed in arrival order so that a delete following an
// upsert of the same record wins.
type RecordEventHandler struct {
	sync   *usecase.SyncUsecase
	logger *slog.Logger
}

// NewRecordEventHandler creates a new RecordEventHandler.
func NewRecordEventHandler(sync *usecase.SyncUsecase, logger *slog.Logger) *RecordEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordEventHandler{sync: sync, logger: logger}
}

// HandleEvent processes a single event. Unknown event types are skipped
// and acknowledged.
func (h *RecordEventHandler) HandleEvent(ctx context.Context, event Event) error {
	switch event.EventType {
	case "RecordUpserted":
		return h.handleUpserted(ctx, event)
	case "RecordDeleted":
		return h.handleDeleted(ctx, event)
	default:
		h.logger.Warn("unknown event type, skipping",
			"event_type", event.EventType,
			"event_id", event.EventID,
		)
		return nil
	}
}

func (h *RecordEventHandler) handleUpserted(ctx context.Context, event Event) error {
	payload, err := h.parsePayload(event)
	if err != nil {
		return err
	}

	h.logger.Info("syncing record",
		"content_type", payload.ContentType,
		"record_id", payload.RecordID,
	)
	return h.sync.SyncRecord(ctx, payload.ContentType, payload.RecordID)
}

func (h *RecordEventHandler) handleDeleted(ctx context.Context, event Event) error {
	payload, err := h.parsePayload(event)
	if err != nil {
		return err
	}

	h.logger.Info("removing record from index",
		"content_type", payload.ContentType,
		"record_id", payload.RecordID,
	)
	return h.sync.DeleteRecord(ctx, payload.ContentType, payload.RecordID)
}

func (h *RecordEventHandler) parsePayload(event Event) (RecordChangedPayload, error) {
	var payload RecordChangedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.logger.Error("failed to unmarshal payload",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err,
		)
		return payload, err
	}
	return payload, nil
}
