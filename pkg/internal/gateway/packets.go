package gateway

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// ClientPacket is one inbound frame. AckID is an opaque client correlation id
// echoed back on the matching ack, never interpreted server-side.
type ClientPacket struct {
	Action  string          `json:"action"`
	AckID   string          `json:"ack_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerPacket struct {
	Event   string `json:"event"`
	AckID   string `json:"ack_id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

func (v ServerPacket) Marshal() []byte {
	raw, _ := jsoniter.Marshal(v)
	return raw
}

func okAck(extra map[string]any) map[string]any {
	out := map[string]any{"ok": true}
	for k, val := range extra {
		out[k] = val
	}
	return out
}

func errAck(message string) map[string]any {
	return map[string]any{"ok": false, "error": message}
}
