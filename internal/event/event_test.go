package event

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNormalizeTrimsAndLowercases(t *testing.T) {
	ev, err := Normalize(IngestRequest{UserID: " alice ", Type: "LOGIN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.UserID != "alice" {
		t.Errorf("expected userId %q, got %q", "alice", ev.UserID)
	}
	if ev.Type != TypeLogin {
		t.Errorf("expected type %q, got %q", TypeLogin, ev.Type)
	}
}

func TestNormalizeDefaultsTimestamp(t *testing.T) {
	ev, err := Normalize(IngestRequest{UserID: "bob", Type: "logout"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp to be defaulted, got zero value")
	}
	if time.Since(ev.Timestamp) > 2*time.Second {
		t.Errorf("expected recent timestamp, got %v", ev.Timestamp)
	}
}

func TestNormalizeKeepsProvidedTimestamp(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	ev, err := Normalize(IngestRequest{UserID: "bob", Type: "purchase", Timestamp: &ts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ev.Timestamp.Equal(ts) {
		t.Errorf("expected timestamp %v, got %v", ts, ev.Timestamp)
	}
	if ev.Timestamp.Location() != time.UTC {
		t.Errorf("expected timestamp normalized to UTC, got %v", ev.Timestamp.Location())
	}
}

func TestNormalizeRejectsEmptyUserID(t *testing.T) {
	for _, userID := range []string{"", "   ", "\t\n"} {
		_, err := Normalize(IngestRequest{UserID: userID, Type: "login"})
		if err == nil {
			t.Errorf("expected error for userId %q, got none", userID)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "userId" {
			t.Errorf("expected userId validation error, got %v", err)
		}
	}
}

func TestNormalizeRejectsUnknownType(t *testing.T) {
	_, err := Normalize(IngestRequest{UserID: "alice", Type: "refund"})
	if err == nil {
		t.Fatal("expected error for unknown type, got none")
	}

	msg := err.Error()
	for _, want := range []string{"login", "logout", "purchase"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to name %q, got %q", want, msg)
		}
	}
}

func TestNormalizeAcceptsAnyCase(t *testing.T) {
	for _, typ := range []string{"login", "LOGIN", "Logout", "pUrChAsE"} {
		ev, err := Normalize(IngestRequest{UserID: "alice", Type: typ})
		if err != nil {
			t.Errorf("expected type %q to be accepted, got %v", typ, err)
			continue
		}
		if ev.Type != strings.ToLower(typ) {
			t.Errorf("expected type stored lowercase, got %q", ev.Type)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := UserEvent{
		UserID:    "alice",
		Type:      TypePurchase,
		Timestamp: time.Date(2026, 8, 29, 10, 15, 30, 123456789, time.UTC),
		Data: map[string]any{
			"item": "book",
			"tags": []any{"fiction", "paperback"},
			"nested": map[string]any{
				"qty": "2",
			},
		},
	}

	b, err := orig.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if got.UserID != orig.UserID || got.Type != orig.Type {
		t.Errorf("round trip changed identity fields: got %+v", got)
	}
	if !got.Timestamp.Equal(orig.Timestamp) {
		t.Errorf("expected timestamp %v, got %v", orig.Timestamp, got.Timestamp)
	}
	if !reflect.DeepEqual(got.Data, orig.Data) {
		t.Errorf("expected data %v, got %v", orig.Data, got.Data)
	}
}

func TestEncodeNilDataRoundTrips(t *testing.T) {
	orig := UserEvent{
		UserID:    "bob",
		Type:      TypeLogin,
		Timestamp: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}

	b, err := orig.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(string(b), `"data":null`) {
		t.Errorf("expected data field present as null, got %s", b)
	}

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Data != nil {
		t.Errorf("expected nil data, got %v", got.Data)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, payload := range []string{
		"not json at all",
		"null",
		"{}",
		`{"type":"login"}`,
	} {
		if _, err := Decode([]byte(payload)); err == nil {
			t.Errorf("expected decode of %q to fail", payload)
		}
	}
}
