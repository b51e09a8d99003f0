package protocol_test

import (
	"bytes"
	"testing"

	qerrors "github.com/pzverkov/kdcauth/internal/errors"
	"github.com/pzverkov/kdcauth/pkg/protocol"
)

func sampleTicket() *protocol.Ticket {
	return &protocol.Ticket{
		ClientID:       "alice@laptop",
		ClientIP:       "",
		ValidityPeriod: protocol.Interval{Begin: 1000, End: 2000},
		SessionKey:     bytes.Repeat([]byte{0x42}, 16),
	}
}

func TestEncodeDecodeTicket(t *testing.T) {
	codec := protocol.NewCodec()
	original := sampleTicket()

	encoded, err := codec.EncodeTicket(original)
	if err != nil {
		t.Fatalf("EncodeTicket failed: %v", err)
	}

	decoded, err := codec.DecodeTicket(encoded)
	if err != nil {
		t.Fatalf("DecodeTicket failed: %v", err)
	}

	if decoded.ClientID != original.ClientID {
		t.Errorf("ClientID = %q, want %q", decoded.ClientID, original.ClientID)
	}
	if decoded.ClientIP != original.ClientIP {
		t.Errorf("ClientIP = %q, want %q", decoded.ClientIP, original.ClientIP)
	}
	if decoded.ValidityPeriod != original.ValidityPeriod {
		t.Errorf("ValidityPeriod = %+v, want %+v", decoded.ValidityPeriod, original.ValidityPeriod)
	}
	if !bytes.Equal(decoded.SessionKey, original.SessionKey) {
		t.Errorf("SessionKey mismatch")
	}
}

func TestDecodeTicketWrongType(t *testing.T) {
	codec := protocol.NewCodec()
	a := &protocol.Authenticator{ClientID: "alice", Timestamp: 1}
	encoded, err := codec.EncodeAuthenticator(a)
	if err != nil {
		t.Fatalf("EncodeAuthenticator failed: %v", err)
	}

	if _, err := codec.DecodeTicket(encoded); !qerrors.Is(err, qerrors.ErrInvalidMessage) {
		t.Errorf("DecodeTicket on wrong type: got %v, want ErrInvalidMessage", err)
	}
}

func TestDecodeTicketTruncated(t *testing.T) {
	codec := protocol.NewCodec()
	encoded, err := codec.EncodeTicket(sampleTicket())
	if err != nil {
		t.Fatalf("EncodeTicket failed: %v", err)
	}

	if _, err := codec.DecodeTicket(encoded[:len(encoded)-1]); err == nil {
		t.Error("expected error decoding truncated ticket")
	}
}

func TestEncodeTicketRejectsEmptyClientID(t *testing.T) {
	codec := protocol.NewCodec()
	ticket := sampleTicket()
	ticket.ClientID = ""

	if _, err := codec.EncodeTicket(ticket); err == nil {
		t.Error("expected error encoding ticket with empty client id")
	}
}

func TestEncodeDecodeAuthenticator(t *testing.T) {
	codec := protocol.NewCodec()
	original := &protocol.Authenticator{ClientID: "alice@laptop", Timestamp: 1234567890}

	encoded, err := codec.EncodeAuthenticator(original)
	if err != nil {
		t.Fatalf("EncodeAuthenticator failed: %v", err)
	}

	decoded, err := codec.DecodeAuthenticator(encoded)
	if err != nil {
		t.Fatalf("DecodeAuthenticator failed: %v", err)
	}

	if decoded.ClientID != original.ClientID || decoded.Timestamp != original.Timestamp {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestEncodeDecodeTicketAuthenticatorWrapper(t *testing.T) {
	codec := protocol.NewCodec()
	original := &protocol.TicketAuthenticatorWrapper{
		Ticket:        []byte("sealed-ticket-bytes"),
		Authenticator: []byte("sealed-authenticator-bytes"),
	}

	encoded, err := codec.EncodeTicketAuthenticatorWrapper(original)
	if err != nil {
		t.Fatalf("EncodeTicketAuthenticatorWrapper failed: %v", err)
	}

	decoded, err := codec.DecodeTicketAuthenticatorWrapper(encoded)
	if err != nil {
		t.Fatalf("DecodeTicketAuthenticatorWrapper failed: %v", err)
	}

	if !bytes.Equal(decoded.Ticket, original.Ticket) {
		t.Error("Ticket mismatch")
	}
	if !bytes.Equal(decoded.Authenticator, original.Authenticator) {
		t.Error("Authenticator mismatch")
	}
}

func TestEncodeDecodeTicketSessionKeyWrapper(t *testing.T) {
	codec := protocol.NewCodec()
	original := &protocol.TicketSessionKeyWrapper{
		Ticket:     []byte("sealed-ticket-bytes"),
		SessionKey: []byte("wrapped-session-key"),
	}

	encoded, err := codec.EncodeTicketSessionKeyWrapper(original)
	if err != nil {
		t.Fatalf("EncodeTicketSessionKeyWrapper failed: %v", err)
	}

	decoded, err := codec.DecodeTicketSessionKeyWrapper(encoded)
	if err != nil {
		t.Fatalf("DecodeTicketSessionKeyWrapper failed: %v", err)
	}

	if !bytes.Equal(decoded.Ticket, original.Ticket) {
		t.Error("Ticket mismatch")
	}
	if !bytes.Equal(decoded.SessionKey, original.SessionKey) {
		t.Error("SessionKey mismatch")
	}
}

func TestEncodeDecodeAuthenticatedValue(t *testing.T) {
	codec := protocol.NewCodec()
	original := &protocol.AuthenticatedValue{
		Wrapper: protocol.TicketAuthenticatorWrapper{
			Ticket:        []byte("sealed-ticket-bytes"),
			Authenticator: []byte("sealed-authenticator-bytes"),
		},
		Value: []byte("sealed-service-server-secret-key"),
	}

	encoded, err := codec.EncodeAuthenticatedValue(original)
	if err != nil {
		t.Fatalf("EncodeAuthenticatedValue failed: %v", err)
	}

	decoded, err := codec.DecodeAuthenticatedValue(encoded)
	if err != nil {
		t.Fatalf("DecodeAuthenticatedValue failed: %v", err)
	}

	if !bytes.Equal(decoded.Wrapper.Ticket, original.Wrapper.Ticket) {
		t.Error("Wrapper.Ticket mismatch")
	}
	if !bytes.Equal(decoded.Value, original.Value) {
		t.Error("Value mismatch")
	}
}

func TestEncodeDecodeLoginCredentialsChangeBootstrap(t *testing.T) {
	codec := protocol.NewCodec()
	original := &protocol.LoginCredentialsChange{
		ID:             "admin@console",
		NewCredentials: []byte("sealed-new-key"),
		Admin:          true,
	}

	encoded, err := codec.EncodeLoginCredentialsChange(original)
	if err != nil {
		t.Fatalf("EncodeLoginCredentialsChange failed: %v", err)
	}

	decoded, err := codec.DecodeLoginCredentialsChange(encoded)
	if err != nil {
		t.Fatalf("DecodeLoginCredentialsChange failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, original.ID)
	}
	if !decoded.Admin {
		t.Error("Admin should be true")
	}
	if decoded.Wrapper != nil {
		t.Error("Wrapper should be nil for bootstrap register")
	}
}

func TestEncodeDecodeLoginCredentialsChangeWithWrapper(t *testing.T) {
	codec := protocol.NewCodec()
	original := &protocol.LoginCredentialsChange{
		ID:             "bob@phone",
		OldCredentials: []byte("sealed-old-key"),
		NewCredentials: []byte("sealed-new-key"),
		Admin:          false,
		Wrapper: &protocol.TicketAuthenticatorWrapper{
			Ticket:        []byte("sealed-ticket-bytes"),
			Authenticator: []byte("sealed-authenticator-bytes"),
		},
	}

	encoded, err := codec.EncodeLoginCredentialsChange(original)
	if err != nil {
		t.Fatalf("EncodeLoginCredentialsChange failed: %v", err)
	}

	decoded, err := codec.DecodeLoginCredentialsChange(encoded)
	if err != nil {
		t.Fatalf("DecodeLoginCredentialsChange failed: %v", err)
	}

	if decoded.Wrapper == nil {
		t.Fatal("Wrapper should not be nil")
	}
	if !bytes.Equal(decoded.Wrapper.Ticket, original.Wrapper.Ticket) {
		t.Error("Wrapper.Ticket mismatch")
	}
	if !bytes.Equal(decoded.OldCredentials, original.OldCredentials) {
		t.Error("OldCredentials mismatch")
	}
}

func TestWriteReadMessage(t *testing.T) {
	codec := protocol.NewCodec()
	ticket := sampleTicket()

	encoded, err := codec.EncodeTicket(ticket)
	if err != nil {
		t.Fatalf("EncodeTicket failed: %v", err)
	}

	var buf bytes.Buffer
	if err := codec.WriteMessage(&buf, protocol.MessageTypeTicket, encoded); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	msgType, payload, err := codec.ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	if msgType != protocol.MessageTypeTicket {
		t.Errorf("msgType = %v, want %v", msgType, protocol.MessageTypeTicket)
	}

	decoded, err := codec.DecodeTicket(payload)
	if err != nil {
		t.Fatalf("DecodeTicket failed: %v", err)
	}
	if decoded.ClientID != ticket.ClientID {
		t.Errorf("ClientID = %q, want %q", decoded.ClientID, ticket.ClientID)
	}
}

func TestWriteMessageTooLarge(t *testing.T) {
	codec := protocol.NewCodec()
	var buf bytes.Buffer
	oversized := make([]byte, protocol.MaxMessageSize+1)

	if err := codec.WriteMessage(&buf, protocol.MessageTypeTicket, oversized); !qerrors.Is(err, qerrors.ErrMessageTooLarge) {
		t.Errorf("got %v, want ErrMessageTooLarge", err)
	}
}

func TestReadMessageTruncatedHeader(t *testing.T) {
	codec := protocol.NewCodec()
	buf := bytes.NewReader([]byte{0x01, 0x00})

	if _, _, err := codec.ReadMessage(buf); err == nil {
		t.Error("expected error reading truncated header")
	}
}

func TestGetMessageType(t *testing.T) {
	codec := protocol.NewCodec()
	ticket := sampleTicket()
	encoded, err := codec.EncodeTicket(ticket)
	if err != nil {
		t.Fatalf("EncodeTicket failed: %v", err)
	}

	msgType, err := codec.GetMessageType(encoded)
	if err != nil {
		t.Fatalf("GetMessageType failed: %v", err)
	}
	if msgType != protocol.MessageTypeTicket {
		t.Errorf("msgType = %v, want %v", msgType, protocol.MessageTypeTicket)
	}
}

func TestGetMessageTypeEmpty(t *testing.T) {
	codec := protocol.NewCodec()
	if _, err := codec.GetMessageType(nil); !qerrors.Is(err, qerrors.ErrInvalidMessage) {
		t.Errorf("got %v, want ErrInvalidMessage", err)
	}
}

func TestMessageTypeString(t *testing.T) {
	cases := map[protocol.MessageType]string{
		protocol.MessageTypeTicket:                    "Ticket",
		protocol.MessageTypeAuthenticator:              "Authenticator",
		protocol.MessageTypeTicketAuthenticatorWrapper: "TicketAuthenticatorWrapper",
		protocol.MessageTypeTicketSessionKeyWrapper:    "TicketSessionKeyWrapper",
		protocol.MessageTypeAuthenticatedValue:         "AuthenticatedValue",
		protocol.MessageTypeLoginCredentialsChange:     "LoginCredentialsChange",
	}

	for mt, want := range cases {
		if got := mt.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", mt, got, want)
		}
	}
}
