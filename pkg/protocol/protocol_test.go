package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeInbound(t *testing.T) {
	t.Parallel()

	tcases := map[string]struct {
		frame string
		want  Inbound
	}{
		"auth": {
			frame: `{"type":"auth","username":"John"}`,
			want:  Auth{Username: "John"},
		},
		"user list": {
			frame: `{"type":"get_user_list"}`,
			want:  UserListRequest{},
		},
		"online user list": {
			frame: `{"type":"get_online_user_list"}`,
			want:  OnlineUserListRequest{},
		},
		"message with numeric to": {
			frame: `{"type":"message","message":"hi","to":2,"time":1000}`,
			want:  ChatSend{Text: "hi", To: 2, Time: 1000},
		},
		"message with string to": {
			frame: `{"type":"message","message":"hi","to":"2","time":1000}`,
			want:  ChatSend{Text: "hi", To: 2, Time: 1000},
		},
		"extra fields ignored": {
			frame: `{"type":"auth","username":"John","extra":true}`,
			want:  Auth{Username: "John"},
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode([]byte(tc.frame))
			if err != nil {
				t.Fatalf("Decode(%s): %v", tc.frame, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Decode(%s) mismatch (-want +got):\n%s", tc.frame, diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tcases := map[string]struct {
		frame string
		want  error
	}{
		"not json":          {frame: `not json at all`, want: ErrMalformedPayload},
		"bare number":       {frame: `42`, want: ErrMalformedPayload},
		"bare string":       {frame: `"auth"`, want: ErrMalformedPayload},
		"array":             {frame: `[{"type":"auth"}]`, want: ErrMalformedPayload},
		"empty object":      {frame: `{}`, want: ErrUnknownType},
		"non-string type":   {frame: `{"type":7}`, want: ErrUnknownType},
		"unknown type":      {frame: `{"type":"shout"}`, want: ErrUnknownType},
		"message empty":     {frame: `{"type":"message","message":"","to":1,"time":1}`, want: ErrInvalidMessage},
		"message blank":     {frame: `{"type":"message","message":"   ","to":1,"time":1}`, want: ErrInvalidMessage},
		"missing to":        {frame: `{"type":"message","message":"hi","time":1}`, want: ErrInvalidMessage},
		"non-numeric to":    {frame: `{"type":"message","message":"hi","to":"abc","time":1}`, want: ErrInvalidMessage},
		"zero to":           {frame: `{"type":"message","message":"hi","to":0,"time":1}`, want: ErrInvalidMessage},
		"negative to":       {frame: `{"type":"message","message":"hi","to":-2,"time":1}`, want: ErrInvalidMessage},
		"missing time":      {frame: `{"type":"message","message":"hi","to":1}`, want: ErrInvalidMessage},
		"zero time":         {frame: `{"type":"message","message":"hi","to":1,"time":0}`, want: ErrInvalidMessage},
		"non-numeric time":  {frame: `{"type":"message","message":"hi","to":1,"time":"soon"}`, want: ErrInvalidMessage},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.frame))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Decode(%s): want %v got %v", tc.frame, tc.want, err)
			}
		})
	}
}

// Outbound field order is part of the tested surface so frames stay
// byte-comparable in higher-level tests.
func TestEncodeOutboundShapes(t *testing.T) {
	t.Parallel()

	tcases := map[string]struct {
		envelope any
		want     string
	}{
		"connected": {
			envelope: NewConnected(1, "John"),
			want:     `{"type":"connected","id":1,"name":"John"}`,
		},
		"delivery": {
			envelope: NewDelivery("hi", 1),
			want:     `{"type":"message","message":"hi","from":1}`,
		},
		"status online": {
			envelope: NewStatus(2, StatusOnline),
			want:     `{"type":"status","id":2,"status":"online"}`,
		},
		"status offline": {
			envelope: NewStatus(2, StatusOffline),
			want:     `{"type":"status","id":2,"status":"offline"}`,
		},
		"error": {
			envelope: NewError("bad message type"),
			want:     `{"type":"error","message":"bad message type"}`,
		},
		"user list": {
			envelope: []UserEntry{
				{ID: 1, Name: "John", Status: StatusOnline},
				{ID: 2, Name: "Bob", Status: StatusOffline},
			},
			want: `[{"id":1,"name":"John","status":"online"},{"id":2,"name":"Bob","status":"offline"}]`,
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			got, err := Encode(tc.envelope)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("Encode mismatch:\nwant %s\ngot  %s", tc.want, got)
			}
		})
	}
}

func TestDecodeEncodedErrorRoundTrip(t *testing.T) {
	t.Parallel()

	// An outbound error envelope fed back into Decode is a valid object
	// with an unknown inbound type, not malformed payload.
	frame, err := Encode(NewError("nope"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(frame); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("Decode(error envelope): want ErrUnknownType got %v", err)
	}
}
