package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Action
	}{
		{
			name: "join with payload",
			body: `{"type":"join","payload":{"displayName":"Nora"}}`,
			want: &Join{DisplayName: "Nora"},
		},
		{
			name: "submit question",
			body: `{"type":"submitQuestion","payload":{"targetUid":"p2","text":"Who snores loudest?"}}`,
			want: &SubmitQuestion{TargetUID: "p2", Text: "Who snores loudest?"},
		},
		{
			name: "choose move",
			body: `{"type":"chooseMove","payload":{"move":"rock"}}`,
			want: &ChooseMove{Move: MoveRock},
		},
		{
			name: "decide without challenge",
			body: `{"type":"decide","payload":{"challenge":false}}`,
			want: &Decide{},
		},
		{
			name: "bare action without payload",
			body: `{"type":"pass"}`,
			want: &Pass{},
		},
		{
			name: "end session",
			body: `{"type":"endSession"}`,
			want: &EndSession{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var envelope ActionEnvelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &envelope))
			action, err := DecodeAction(envelope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, action)
		})
	}

	_, err := DecodeAction(ActionEnvelope{Type: "teleport"})
	assert.Error(t, err)

	_, err = DecodeAction(ActionEnvelope{Type: ActionJoin, Payload: json.RawMessage(`{`)})
	assert.Error(t, err)
}
