// Package wearable receives daily health metrics pushed from a paired
// companion device.
//
// There is a single message type on this channel. Delivery is best-effort:
// no acknowledgement or retry protocol exists, and a later push for the
// same date simply replaces the earlier one upstream.
package wearable

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tibibalance/tibisync/internal/document"
	"github.com/tibibalance/tibisync/internal/model"
)

// MessageType defines the type of companion message.
type MessageType string

// MessageTypeDailyMetrics is the only message type the companion channel
// carries.
const MessageTypeDailyMetrics MessageType = "daily_metrics"

// Message is the envelope a companion device pushes.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DecodeMetrics parses a raw companion message into a validated metrics
// payload.
func DecodeMetrics(data []byte) (*model.DailyMetrics, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse companion message: %w", err)
	}
	if msg.Type != MessageTypeDailyMetrics {
		return nil, fmt.Errorf("unexpected companion message type %q", msg.Type)
	}

	var m model.DailyMetrics
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metrics payload: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics payload: %w", err)
	}
	return &m, nil
}

// EncodeMetrics wraps a metrics payload in the companion envelope. Used by
// bridge tooling and tests.
func EncodeMetrics(m *model.DailyMetrics) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics payload: %w", err)
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metrics payload: %w", err)
	}
	return json.Marshal(Message{
		Type:      MessageTypeDailyMetrics,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
}

// MetricsToDocument converts a metrics payload to its remote document
// form. The date is the document path, not a payload field.
func MetricsToDocument(m *model.DailyMetrics) document.Document {
	d := document.Document{
		"steps":           float64(m.Steps),
		"activeCalories":  m.ActiveCalories,
		"exerciseMinutes": float64(m.ExerciseMinutes),
	}
	if m.AvgHeartRate != nil {
		d["avgHeartRate"] = *m.AvgHeartRate
	}
	return d
}

// Sink consumes decoded metrics. Implementations forward to the remote
// store; failures are logged by the transport since delivery is
// best-effort.
type Sink func(ctx context.Context, m *model.DailyMetrics) error
