package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Allowed event types, stored lowercase.
const (
	TypeLogin    = "login"
	TypeLogout   = "logout"
	TypePurchase = "purchase"
)

var allowedTypes = map[string]bool{
	TypeLogin:    true,
	TypeLogout:   true,
	TypePurchase: true,
}

// UserEvent is the canonical record flowing through the whole pipeline.
// The JSON tags define the wire encoding used both on the topic and in
// HTTP responses; once constructed it is treated as a value everywhere.
type UserEvent struct {
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// IngestRequest is the raw POST /events body before normalization.
type IngestRequest struct {
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// ValidationError reports a single bad field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s %s", e.Field, e.Msg) }

// Normalize turns a raw request into a canonical UserEvent: userId is
// trimmed and must be non-empty, type is lowercased and must be one of the
// allowed values, a missing timestamp defaults to now. Pure function, no
// schema is enforced on data.
func Normalize(req IngestRequest) (UserEvent, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return UserEvent{}, &ValidationError{Field: "userId", Msg: "must be a non-empty string"}
	}

	typ := strings.ToLower(req.Type)
	if !allowedTypes[typ] {
		return UserEvent{}, &ValidationError{
			Field: "type",
			Msg:   fmt.Sprintf("must be one of: %s, %s, %s", TypeLogin, TypeLogout, TypePurchase),
		}
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	return UserEvent{
		UserID:    userID,
		Type:      typ,
		Timestamp: ts,
		Data:      req.Data,
	}, nil
}

// Encode serializes the event for the topic.
func (e UserEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a record read back from the topic. A payload without a
// userId (including JSON null) is rejected as malformed rather than
// producing a zero event.
func Decode(b []byte) (UserEvent, error) {
	var e UserEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return UserEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.UserID == "" {
		return UserEvent{}, fmt.Errorf("event missing userId")
	}
	return e, nil
}
