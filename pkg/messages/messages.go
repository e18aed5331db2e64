package messages

import (
	"encoding/json"

	"github.com/partyline/whispered/pkg/game/types"
)

type FrameType uint8

const (
	FrameTypeGameSnapshot FrameType = iota
	FrameTypeGameEnded
	FrameTypeError
)

// Frame is one message pushed to a game watcher.
type Frame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// GameSnapshot is the public state fanned out on every committed
// transition. It never carries private data.
type GameSnapshot struct {
	Game    *types.Game     `json:"game"`
	Players []*types.Player `json:"players,omitempty"`
}

func NewGameSnapshotFrame(snapshot *GameSnapshot) (*Frame, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return &Frame{
		Type:    FrameTypeGameSnapshot,
		Payload: payload,
	}, nil
}

func NewGameEndedFrame() *Frame {
	return &Frame{
		Type: FrameTypeGameEnded,
	}
}
