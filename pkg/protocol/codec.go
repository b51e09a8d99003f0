// codec.go implements serialization and deserialization of protocol messages.
//
// Wire Format:
//
// All messages follow this structure:
//
//	+------+--------+----------+
//	| Type | Length | Payload  |
//	| 1B   | 4B BE  | Variable |
//	+------+--------+----------+
//
// Length is big-endian uint32, not including header bytes. Ticket and
// Authenticator records additionally have their own canonical tagged-record
// encoding (EncodeTicket/EncodeAuthenticator) independent of the wire
// header: that canonical form is what gets sealed, not the framed message.
package protocol

import (
	"encoding/binary"
	"io"

	qerrors "github.com/pzverkov/kdcauth/internal/errors"
)

// Codec provides message serialization and deserialization.
type Codec struct{}

// NewCodec creates a new protocol codec.
func NewCodec() *Codec {
	return &Codec{}
}

// EncodeTicket produces the canonical tagged-record bytes for a Ticket:
// type tag, client_id, client_ip (each length-prefixed with a 2-byte
// big-endian count), the 8-byte validity bounds, then the raw session key.
func (c *Codec) EncodeTicket(t *Ticket) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+2+len(t.ClientID)+2+len(t.ClientIP)+8+8+len(t.SessionKey))
	out = append(out, byte(MessageTypeTicket))
	out = appendLengthPrefixedString(out, t.ClientID)
	out = appendLengthPrefixedString(out, t.ClientIP)
	out = binary.BigEndian.AppendUint64(out, uint64(t.ValidityPeriod.Begin))
	out = binary.BigEndian.AppendUint64(out, uint64(t.ValidityPeriod.End))
	out = append(out, t.SessionKey...)

	return out, nil
}

// DecodeTicket parses bytes produced by EncodeTicket.
func (c *Codec) DecodeTicket(data []byte) (*Ticket, error) {
	if len(data) < 1 || MessageType(data[0]) != MessageTypeTicket {
		return nil, qerrors.ErrInvalidMessage
	}
	rest := data[1:]

	clientID, rest, err := readLengthPrefixedString(rest)
	if err != nil {
		return nil, err
	}
	clientIP, rest, err := readLengthPrefixedString(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) < 16 {
		return nil, qerrors.ErrInvalidMessage
	}
	begin := int64(binary.BigEndian.Uint64(rest[:8]))
	end := int64(binary.BigEndian.Uint64(rest[8:16]))
	sessionKey := append([]byte(nil), rest[16:]...)

	t := &Ticket{
		ClientID:       clientID,
		ClientIP:       clientIP,
		ValidityPeriod: Interval{Begin: begin, End: end},
		SessionKey:     sessionKey,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// EncodeAuthenticator produces the canonical tagged-record bytes for an
// Authenticator: type tag, client_id, then the 8-byte timestamp.
func (c *Codec) EncodeAuthenticator(a *Authenticator) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+2+len(a.ClientID)+8)
	out = append(out, byte(MessageTypeAuthenticator))
	out = appendLengthPrefixedString(out, a.ClientID)
	out = binary.BigEndian.AppendUint64(out, uint64(a.Timestamp))

	return out, nil
}

// DecodeAuthenticator parses bytes produced by EncodeAuthenticator.
func (c *Codec) DecodeAuthenticator(data []byte) (*Authenticator, error) {
	if len(data) < 1 || MessageType(data[0]) != MessageTypeAuthenticator {
		return nil, qerrors.ErrInvalidMessage
	}
	rest := data[1:]

	clientID, rest, err := readLengthPrefixedString(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 8 {
		return nil, qerrors.ErrInvalidMessage
	}
	timestamp := int64(binary.BigEndian.Uint64(rest))

	a := &Authenticator{ClientID: clientID, Timestamp: timestamp}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// EncodeSessionKey produces the canonical tagged-record bytes for a bare
// session key: type tag followed by the raw key bytes. This is the record
// that gets sealed when a session key is wrapped for a caller.
func (c *Codec) EncodeSessionKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, qerrors.ErrInvalidMessage
	}
	out := make([]byte, 0, 1+len(key))
	out = append(out, byte(MessageTypeSessionKeyPlaintext))
	out = append(out, key...)
	return out, nil
}

// DecodeSessionKey parses bytes produced by EncodeSessionKey.
func (c *Codec) DecodeSessionKey(data []byte) ([]byte, error) {
	if len(data) < 2 || MessageType(data[0]) != MessageTypeSessionKeyPlaintext {
		return nil, qerrors.ErrInvalidMessage
	}
	return append([]byte(nil), data[1:]...), nil
}

// EncodeTicketAuthenticatorWrapper encodes a wrapper's two opaque sealed
// fields, each length-prefixed with a 4-byte big-endian count.
func (c *Codec) EncodeTicketAuthenticatorWrapper(w *TicketAuthenticatorWrapper) ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+4+len(w.Ticket)+4+len(w.Authenticator))
	out = append(out, byte(MessageTypeTicketAuthenticatorWrapper))
	out = appendLengthPrefixedBytes(out, w.Ticket)
	out = appendLengthPrefixedBytes(out, w.Authenticator)
	return out, nil
}

// DecodeTicketAuthenticatorWrapper parses bytes produced by
// EncodeTicketAuthenticatorWrapper.
func (c *Codec) DecodeTicketAuthenticatorWrapper(data []byte) (*TicketAuthenticatorWrapper, error) {
	if len(data) < 1 || MessageType(data[0]) != MessageTypeTicketAuthenticatorWrapper {
		return nil, qerrors.ErrInvalidMessage
	}
	rest := data[1:]

	ticket, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	authenticator, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, qerrors.ErrInvalidMessage
	}

	w := &TicketAuthenticatorWrapper{Ticket: ticket, Authenticator: authenticator}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// EncodeTicketSessionKeyWrapper encodes a wrapper's two opaque fields.
func (c *Codec) EncodeTicketSessionKeyWrapper(w *TicketSessionKeyWrapper) ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+4+len(w.Ticket)+4+len(w.SessionKey))
	out = append(out, byte(MessageTypeTicketSessionKeyWrapper))
	out = appendLengthPrefixedBytes(out, w.Ticket)
	out = appendLengthPrefixedBytes(out, w.SessionKey)
	return out, nil
}

// DecodeTicketSessionKeyWrapper parses bytes produced by
// EncodeTicketSessionKeyWrapper.
func (c *Codec) DecodeTicketSessionKeyWrapper(data []byte) (*TicketSessionKeyWrapper, error) {
	if len(data) < 1 || MessageType(data[0]) != MessageTypeTicketSessionKeyWrapper {
		return nil, qerrors.ErrInvalidMessage
	}
	rest := data[1:]

	ticket, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	sessionKey, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, qerrors.ErrInvalidMessage
	}

	w := &TicketSessionKeyWrapper{Ticket: ticket, SessionKey: sessionKey}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// EncodeAuthenticatedValue encodes an AuthenticatedValue.
func (c *Codec) EncodeAuthenticatedValue(v *AuthenticatedValue) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	wrapperBytes, err := c.EncodeTicketAuthenticatorWrapper(&v.Wrapper)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+4+len(wrapperBytes)+4+len(v.Value))
	out = append(out, byte(MessageTypeAuthenticatedValue))
	out = appendLengthPrefixedBytes(out, wrapperBytes)
	out = appendLengthPrefixedBytes(out, v.Value)
	return out, nil
}

// DecodeAuthenticatedValue parses bytes produced by EncodeAuthenticatedValue.
func (c *Codec) DecodeAuthenticatedValue(data []byte) (*AuthenticatedValue, error) {
	if len(data) < 1 || MessageType(data[0]) != MessageTypeAuthenticatedValue {
		return nil, qerrors.ErrInvalidMessage
	}
	rest := data[1:]

	wrapperBytes, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	value, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, qerrors.ErrInvalidMessage
	}

	wrapper, err := c.DecodeTicketAuthenticatorWrapper(wrapperBytes)
	if err != nil {
		return nil, err
	}

	v := &AuthenticatedValue{Wrapper: *wrapper, Value: value}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeLoginCredentialsChange encodes a LoginCredentialsChange. The
// embedded wrapper is optional (bootstrap register carries none); its
// absence is signalled with a zero-length prefix.
func (c *Codec) EncodeLoginCredentialsChange(ch *LoginCredentialsChange) ([]byte, error) {
	if err := ch.Validate(); err != nil {
		return nil, err
	}

	var wrapperBytes []byte
	if ch.Wrapper != nil {
		encoded, err := c.EncodeTicketAuthenticatorWrapper(ch.Wrapper)
		if err != nil {
			return nil, err
		}
		wrapperBytes = encoded
	}

	admin := byte(0)
	if ch.Admin {
		admin = 1
	}

	out := make([]byte, 0, 1+2+len(ch.ID)+4+len(ch.OldCredentials)+4+len(ch.NewCredentials)+1+4+len(wrapperBytes))
	out = append(out, byte(MessageTypeLoginCredentialsChange))
	out = appendLengthPrefixedString(out, ch.ID)
	out = appendLengthPrefixedBytes(out, ch.OldCredentials)
	out = appendLengthPrefixedBytes(out, ch.NewCredentials)
	out = append(out, admin)
	out = appendLengthPrefixedBytes(out, wrapperBytes)

	return out, nil
}

// DecodeLoginCredentialsChange parses bytes produced by
// EncodeLoginCredentialsChange.
func (c *Codec) DecodeLoginCredentialsChange(data []byte) (*LoginCredentialsChange, error) {
	if len(data) < 1 || MessageType(data[0]) != MessageTypeLoginCredentialsChange {
		return nil, qerrors.ErrInvalidMessage
	}
	rest := data[1:]

	id, rest, err := readLengthPrefixedString(rest)
	if err != nil {
		return nil, err
	}
	oldCredentials, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	newCredentials, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) < 1 {
		return nil, qerrors.ErrInvalidMessage
	}
	admin := rest[0] != 0
	rest = rest[1:]

	wrapperBytes, rest, err := readLengthPrefixedBytes(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, qerrors.ErrInvalidMessage
	}

	var wrapper *TicketAuthenticatorWrapper
	if len(wrapperBytes) > 0 {
		wrapper, err = c.DecodeTicketAuthenticatorWrapper(wrapperBytes)
		if err != nil {
			return nil, err
		}
	}

	result := &LoginCredentialsChange{
		ID:             id,
		OldCredentials: oldCredentials,
		NewCredentials: newCredentials,
		Admin:          admin,
		Wrapper:        wrapper,
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func appendLengthPrefixedString(out []byte, s string) []byte {
	out = binary.BigEndian.AppendUint16(out, uint16(len(s)))
	return append(out, s...)
}

func readLengthPrefixedString(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, qerrors.ErrInvalidMessage
	}
	n := int(binary.BigEndian.Uint16(data))
	data = data[2:]
	if len(data) < n {
		return "", nil, qerrors.ErrInvalidMessage
	}
	return string(data[:n]), data[n:], nil
}

func appendLengthPrefixedBytes(out, b []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(b)))
	return append(out, b...)
}

func readLengthPrefixedBytes(data []byte) ([]byte, []byte, error) {
	if len(data) < 4 {
		return nil, nil, qerrors.ErrInvalidMessage
	}
	n := int(binary.BigEndian.Uint32(data))
	if n < 0 {
		return nil, nil, qerrors.ErrInvalidMessage
	}
	data = data[4:]
	if len(data) < n {
		return nil, nil, qerrors.ErrInvalidMessage
	}
	out := append([]byte(nil), data[:n]...)
	return out, data[n:], nil
}

// WriteMessage frames data with a 1-byte type tag and 4-byte big-endian
// length, then writes it to w. The framed buffer is drawn from the global
// buffer pool since tickets and authenticators are small enough to fit the
// pool's lower size classes.
func (c *Codec) WriteMessage(w io.Writer, msgType MessageType, data []byte) error {
	if len(data) > MaxMessageSize {
		return qerrors.ErrMessageTooLarge
	}

	pb := globalBufferPool.GetPooled(HeaderSize + len(data))
	defer pb.Release()

	framed := pb.Bytes()
	framed[0] = byte(msgType)
	binary.BigEndian.PutUint32(framed[1:], uint32(len(data)))
	copy(framed[HeaderSize:], data)

	_, err := w.Write(framed)
	return err
}

// ReadMessage reads a complete framed message from the reader, returning
// its type tag and payload.
func (c *Codec) ReadMessage(r io.Reader) (MessageType, []byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	payloadLen := binary.BigEndian.Uint32(header[1:5])
	if payloadLen > MaxMessageSize {
		return 0, nil, qerrors.ErrMessageTooLarge
	}

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, err
		}
	}

	return MessageType(header[0]), payload, nil
}

// GetMessageType returns the type tag of a serialized message.
func (c *Codec) GetMessageType(data []byte) (MessageType, error) {
	if len(data) < 1 {
		return 0, qerrors.ErrInvalidMessage
	}
	return MessageType(data[0]), nil
}
