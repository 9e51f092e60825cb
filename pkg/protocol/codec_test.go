package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	ngrok := "https://example.ngrok.io"

	messages := []Message{
		&Join{ID: id, Username: "alice"},
		&Leave{ID: id},
		&Chat{ID: id, Username: "alice", Text: "hi", Timestamp: 1700000000},
		&VideoFrame{ID: id, Username: "alice", Frame: []byte{0x01, 0x02, 0x03}},
		&UserList{Users: []UserInfo{
			{ID: id, Username: "alice", JoinedAt: 1700000000},
		}},
		&ServerInfo{NgrokURL: &ngrok, RoomName: "Terminal Chat Room"},
		&ServerInfo{RoomName: "Terminal Chat Room"},
		&Error{Message: "duplicate id"},
	}

	for _, m := range messages {
		data, err := Encode(m)
		if err != nil {
			t.Fatalf("Encode(%T) error: %v", m, err)
		}

		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", data, err)
		}
		if decoded.Kind() != m.Kind() {
			t.Errorf("Decode kind = %s; want %s", decoded.Kind(), m.Kind())
		}

		// Re-encoding the decoded message must reproduce the bytes.
		again, err := Encode(decoded)
		if err != nil {
			t.Fatalf("re-Encode(%T) error: %v", decoded, err)
		}
		if !bytes.Equal(data, again) {
			t.Errorf("re-encode of %s = %s; want %s", m.Kind(), again, data)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	m := &Chat{ID: uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Username: "bob", Text: "same bytes", Timestamp: 42}

	a, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	b, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("Encode() not deterministic: %s vs %s", a, b)
	}
}

func TestEncodeCarriesTypeTag(t *testing.T) {
	data, err := Encode(&Leave{ID: uuid.New()})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", data, err)
	}
	if envelope.Type != "Leave" {
		t.Errorf("type tag = %q; want %q", envelope.Type, "Leave")
	}
}

func TestEncodeEmptyUserList(t *testing.T) {
	data, err := Encode(&UserList{})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !bytes.Contains(data, []byte(`"users":[]`)) {
		t.Errorf("Encode(&UserList{}) = %s; want a users array", data)
	}
}

func TestDecodeUnknownVariant(t *testing.T) {
	_, err := Decode([]byte(`{"type":"Telemetry","id":"x"}`))
	assertDecodeError(t, err, KindUnknownVariant)
}

func TestDecodeMissingField(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no type tag", `{"id":"11111111-2222-3333-4444-555555555555"}`},
		{"join without username", `{"type":"Join","id":"11111111-2222-3333-4444-555555555555"}`},
		{"join null username", `{"type":"Join","id":"11111111-2222-3333-4444-555555555555","username":null}`},
		{"chat without text", `{"type":"Chat","id":"11111111-2222-3333-4444-555555555555","username":"a","timestamp":1}`},
		{"frame without payload", `{"type":"VideoFrame","id":"11111111-2222-3333-4444-555555555555","username":"a"}`},
		{"userlist without users", `{"type":"UserList"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			assertDecodeError(t, err, KindMissingField)
		})
	}
}

func TestDecodePayloadTooLarge(t *testing.T) {
	frame := make([]byte, MaxFramePayload+1)
	data, err := Encode(&VideoFrame{ID: uuid.New(), Username: "a", Frame: frame})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	_, err = Decode(data)
	assertDecodeError(t, err, KindPayloadTooLarge)
}

func TestDecodeOversizedMessage(t *testing.T) {
	data := make([]byte, MaxMessageSize+1)
	_, err := Decode(data)
	assertDecodeError(t, err, KindPayloadTooLarge)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `hello`},
		{"json array", `[1,2,3]`},
		{"numeric type tag", `{"type":42}`},
		{"username wrong type", `{"type":"Join","id":"11111111-2222-3333-4444-555555555555","username":7}`},
		{"bad uuid", `{"type":"Leave","id":"not-a-uuid"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			assertDecodeError(t, err, KindMalformed)
		})
	}
}

func TestKindReliable(t *testing.T) {
	if KindVideoFrame.Reliable() {
		t.Error("KindVideoFrame.Reliable() = true; want false")
	}
	for _, k := range []Kind{KindJoin, KindLeave, KindChat, KindUserList, KindServerInfo, KindError} {
		if !k.Reliable() {
			t.Errorf("%s.Reliable() = false; want true", k)
		}
	}
}

func assertDecodeError(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatal("Decode() error = nil; want *DecodeError")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Decode() error = %T(%v); want *DecodeError", err, err)
	}
	if de.Kind != kind {
		t.Errorf("DecodeError.Kind = %s; want %s", de.Kind, kind)
	}
}
