package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Limits applied to inbound frames.
const (
	MaxNameLen    = 64
	MaxMessageLen = 1024
)

// Protocol errors returned by ParseInbound.
var (
	ErrMalformed      = errors.New("malformed frame")
	ErrMissingID      = errors.New("id is required")
	ErrMissingName    = errors.New("name is required")
	ErrNameTooLong    = errors.New("name too long")
	ErrMessageTooLong = errors.New("message too long")
)

// Inbound is a validated client frame. Message is nil for a rename-only
// frame; ToID is Broadcast when the client did not address anyone.
type Inbound struct {
	ID      ClientID
	Name    string
	Message *string
	ToID    ClientID
}

// inboundWire mirrors the JSON shape with every field optional so presence
// can be checked after decoding.
type inboundWire struct {
	ID      *ClientID `json:"id"`
	Name    *string   `json:"name"`
	Message *string   `json:"message"`
	ToID    *ClientID `json:"to_id"`
}

// ParseInbound decodes and validates one client frame.
func ParseInbound(data []byte) (*Inbound, error) {
	var w inboundWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.ID == nil {
		return nil, ErrMissingID
	}
	if w.Name == nil {
		return nil, ErrMissingName
	}
	if utf8.RuneCountInString(*w.Name) > MaxNameLen {
		return nil, fmt.Errorf("%w: %d runes, max %d", ErrNameTooLong, utf8.RuneCountInString(*w.Name), MaxNameLen)
	}
	if w.Message != nil && utf8.RuneCountInString(*w.Message) > MaxMessageLen {
		return nil, fmt.Errorf("%w: max %d runes", ErrMessageTooLong, MaxMessageLen)
	}

	in := &Inbound{ID: *w.ID, Name: *w.Name, Message: w.Message}
	if w.ToID != nil {
		in.ToID = *w.ToID
	}
	return in, nil
}
