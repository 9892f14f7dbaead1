package mqtt

import (
	"time"

	"github.com/tamzrod/ezetrol-bridge/internal/decoder"
	"github.com/tamzrod/ezetrol-bridge/internal/poller"
)

const (
	Online  = "online"
	Offline = "offline"
)

// Topics are the bridge topics under one prefix.
type Topics struct {
	State        string
	Availability string
	Refresh      string
}

func NewTopics(prefix string) Topics {
	return Topics{
		State:        prefix + "/state",
		Availability: prefix + "/availability",
		Refresh:      prefix + "/refresh",
	}
}

// StatePayload is the retained state document.
type StatePayload struct {
	Device      string            `json:"device"`
	Chlorine    string            `json:"chlorine"`
	PH          string            `json:"ph"`
	Temperature string            `json:"temperature"`
	Available   bool              `json:"available"`
	UpdatedAt   time.Time         `json:"updated_at"`
	LastSuccess *time.Time        `json:"last_success,omitempty"`
	Error       string            `json:"error,omitempty"`
	Units       map[string]string `json:"units"`
}

func NewStatePayload(s poller.State) StatePayload {
	p := StatePayload{
		Device:      s.DeviceID,
		Chlorine:    s.Snapshot.Chlorine,
		PH:          s.Snapshot.PH,
		Temperature: s.Snapshot.Temperature,
		Available:   s.Available(),
		UpdatedAt:   s.UpdatedAt,
		Error:       s.LastError(),
		Units:       make(map[string]string, len(decoder.Metrics)),
	}
	if !s.LastSuccessAt.IsZero() {
		t := s.LastSuccessAt
		p.LastSuccess = &t
	}
	for _, m := range decoder.Metrics {
		p.Units[m.Key] = m.Unit
	}
	return p
}

func availability(s poller.State) string {
	if s.Available() {
		return Online
	}
	return Offline
}
