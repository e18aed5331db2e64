package types

import (
	"encoding/json"
	"fmt"
)

// ActionType identifies one of the tagged action variants a player can
// submit against a game.
type ActionType string

const (
	ActionJoin            ActionType = "join"
	ActionStart           ActionType = "start"
	ActionSubmitQuestion  ActionType = "submitQuestion"
	ActionSubmitAnswer    ActionType = "submitAnswer"
	ActionPass            ActionType = "pass"
	ActionSubmitDare      ActionType = "submitDare"
	ActionAcknowledgeDare ActionType = "acknowledgeDare"
	ActionDecide          ActionType = "decide"
	ActionChooseMove      ActionType = "chooseMove"
	ActionReveal          ActionType = "reveal"
	ActionSkip            ActionType = "skip"
	ActionNextRound       ActionType = "nextRound"
	ActionEndSession      ActionType = "endSession"
)

// Action is one player request against the state machine.
type Action interface {
	ActionType() ActionType
}

type Join struct {
	DisplayName string `json:"displayName"`
}

type Start struct{}

type SubmitQuestion struct {
	TargetUID string `json:"targetUid"`
	Text      string `json:"text"`
}

type SubmitAnswer struct {
	NamedUID string `json:"namedUid"`
}

type Pass struct{}

type SubmitDare struct {
	Text string `json:"text"`
}

type AcknowledgeDare struct{}

type Decide struct {
	Challenge bool `json:"challenge"`
}

type ChooseMove struct {
	Move Move `json:"move"`
}

type Reveal struct{}

type Skip struct{}

type NextRound struct{}

type EndSession struct{}

func (Join) ActionType() ActionType            { return ActionJoin }
func (Start) ActionType() ActionType           { return ActionStart }
func (SubmitQuestion) ActionType() ActionType  { return ActionSubmitQuestion }
func (SubmitAnswer) ActionType() ActionType    { return ActionSubmitAnswer }
func (Pass) ActionType() ActionType            { return ActionPass }
func (SubmitDare) ActionType() ActionType      { return ActionSubmitDare }
func (AcknowledgeDare) ActionType() ActionType { return ActionAcknowledgeDare }
func (Decide) ActionType() ActionType          { return ActionDecide }
func (ChooseMove) ActionType() ActionType      { return ActionChooseMove }
func (Reveal) ActionType() ActionType          { return ActionReveal }
func (Skip) ActionType() ActionType            { return ActionSkip }
func (NextRound) ActionType() ActionType       { return ActionNextRound }
func (EndSession) ActionType() ActionType      { return ActionEndSession }

// ActionEnvelope is the wire format of a player action: a type tag plus a
// JSON payload for the variants that carry data.
type ActionEnvelope struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeAction decodes an envelope into its typed action variant.
func DecodeAction(envelope ActionEnvelope) (Action, error) {
	decode := func(into Action) (Action, error) {
		if len(envelope.Payload) == 0 {
			return into, nil
		}
		if err := json.Unmarshal(envelope.Payload, into); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %v", envelope.Type, err)
		}
		return into, nil
	}

	switch envelope.Type {
	case ActionJoin:
		return decode(&Join{})
	case ActionStart:
		return &Start{}, nil
	case ActionSubmitQuestion:
		return decode(&SubmitQuestion{})
	case ActionSubmitAnswer:
		return decode(&SubmitAnswer{})
	case ActionPass:
		return &Pass{}, nil
	case ActionSubmitDare:
		return decode(&SubmitDare{})
	case ActionAcknowledgeDare:
		return &AcknowledgeDare{}, nil
	case ActionDecide:
		return decode(&Decide{})
	case ActionChooseMove:
		return decode(&ChooseMove{})
	case ActionReveal:
		return &Reveal{}, nil
	case ActionSkip:
		return &Skip{}, nil
	case ActionNextRound:
		return &NextRound{}, nil
	case ActionEndSession:
		return &EndSession{}, nil
	}
	return nil, fmt.Errorf("unknown action type: %s", envelope.Type)
}
