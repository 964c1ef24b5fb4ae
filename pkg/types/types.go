package types

import (
	"encoding/json"
	"fmt"
)

// ClientID identifies one connected session. Zero is reserved and means
// "no target" (broadcast) when used as a recipient.
type ClientID = uint32

// Broadcast is the recipient id of a message addressed to every session.
const Broadcast ClientID = 0

// DatetimeLayout is the time.Format layout of Snapshot.Datetime,
// e.g. "Tue  6 Feb 14:03:09".
const DatetimeLayout = "Mon _2 Jan 15:04:05"

// CPULoad is the utilization of one logical core in percent (0–100).
type CPULoad struct {
	Core    uint32
	Percent float32
}

// MarshalJSON encodes the load as [core, percent].
func (c CPULoad) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Core, c.Percent})
}

// UnmarshalJSON decodes a [core, percent] pair.
func (c *CPULoad) UnmarshalJSON(data []byte) error {
	var pair []json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("cpu load: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("cpu load: want 2 elements, got %d", len(pair))
	}
	core, err := pair[0].Int64()
	if err != nil {
		return fmt.Errorf("cpu load: core: %w", err)
	}
	pct, err := pair[1].Float64()
	if err != nil {
		return fmt.Errorf("cpu load: percent: %w", err)
	}
	c.Core = uint32(core)
	c.Percent = float32(pct)
	return nil
}

// MemoryData holds host memory totals in bytes.
type MemoryData struct {
	Total     uint64 `json:"total"`
	Free      uint64 `json:"free"`
	Available uint64 `json:"available"`
	Used      uint64 `json:"used"`
}

// UsedPct returns Used as a percentage of Total, or 0 when Total is unknown.
func (m *MemoryData) UsedPct() float64 {
	if m == nil || m.Total == 0 {
		return 0
	}
	return float64(m.Used) / float64(m.Total) * 100
}

// ChatMessage is one chat line queued by a session reader.
type ChatMessage struct {
	FromID   ClientID `json:"id"`
	FromName string   `json:"name"`
	ToID     ClientID `json:"to_id,omitempty"`
	Body     string   `json:"message"`
}

// VisibleTo reports whether the message may be shown to recipient.
// Senders always see their own messages echoed back.
func (m *ChatMessage) VisibleTo(recipient ClientID) bool {
	if m == nil {
		return false
	}
	return m.ToID == Broadcast || m.ToID == recipient || m.FromID == recipient
}

// Snapshot is one server-wide sample plus at most one chat message.
// It must not be modified after it has been published.
type Snapshot struct {
	Hostname     string       `json:"hostname"`
	Datetime     string       `json:"datetime"`
	SessionCount uint32       `json:"ws_count"`
	CPU          []CPULoad    `json:"cpu_data"`
	Memory       *MemoryData  `json:"mem_data,omitempty"`
	Message      *ChatMessage `json:"message,omitempty"`
}

// CPUMax returns the highest per-core utilization in the snapshot.
func (s *Snapshot) CPUMax() float64 {
	var peak float64
	for _, c := range s.CPU {
		if float64(c.Percent) > peak {
			peak = float64(c.Percent)
		}
	}
	return peak
}

// CPUAvg returns the mean utilization across all cores.
func (s *Snapshot) CPUAvg() float64 {
	if len(s.CPU) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.CPU {
		sum += float64(c.Percent)
	}
	return sum / float64(len(s.CPU))
}

// Outbound is the per-recipient frame sent to a client on every tick.
type Outbound struct {
	Hostname   string       `json:"hostname"`
	Datetime   string       `json:"datetime"`
	WsCount    uint32       `json:"ws_count"`
	WsID       ClientID     `json:"ws_id"`
	WsUsername string       `json:"ws_username"`
	CPUData    []CPULoad    `json:"cpu_data"`
	MemData    *MemoryData  `json:"mem_data,omitempty"`
	Message    *ChatMessage `json:"message,omitempty"`
}

// Personalize builds the Outbound frame for recipient. The snapshot's
// message is kept only if it is visible to recipient. The snapshot itself
// is not modified; slices and pointers are shared read-only.
func (s *Snapshot) Personalize(recipient ClientID, username string) *Outbound {
	out := &Outbound{
		Hostname:   s.Hostname,
		Datetime:   s.Datetime,
		WsCount:    s.SessionCount,
		WsID:       recipient,
		WsUsername: username,
		CPUData:    s.CPU,
		MemData:    s.Memory,
	}
	if s.Message.VisibleTo(recipient) {
		out.Message = s.Message
	}
	return out
}

// SessionInfo describes one registered session for the REST API.
type SessionInfo struct {
	ID   ClientID `json:"id"`
	Name string   `json:"name"`
}
