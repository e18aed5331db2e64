package game

import (
	"testing"
	"time"

	"github.com/partyline/whispered/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// testSnapshot builds a 4-player game in the given phase. Player p1 is
// the leader and active asker (order 0), p2 the target, p3 the named
// player, p4 a bystander.
func testSnapshot(status types.Phase) Snapshot {
	g := &types.Game{
		Code:          "ABC234",
		Name:          "game night",
		Status:        status,
		LeaderUID:     "p1",
		ActiveTurnUID: "p1",
		RPSScores:     map[string]int{},
		RPSChoices:    map[string]types.Move{},
	}
	private := &types.PrivateData{}

	switch status {
	case types.PhaseLobby:
		g.ActiveTurnUID = "p1"
	case types.PhaseWhispering:
		private.CurrentQuestion = "Who snores loudest?"
	case types.PhaseAnswering:
		g.TargetPlayerUID = "p2"
		private.CurrentQuestion = "Who snores loudest?"
	case types.PhaseChallengeDecision:
		g.TargetPlayerUID = "p2"
		g.NamedPlayerUID = "p3"
		private.CurrentQuestion = "Who snores loudest?"
	case types.PhaseRPSChallenge:
		g.TargetPlayerUID = "p2"
		g.NamedPlayerUID = "p3"
		private.CurrentQuestion = "Who snores loudest?"
	case types.PhaseLeaderDecision:
		g.TargetPlayerUID = "p2"
		g.NamedPlayerUID = "p3"
		g.RPSWinnerUID = "p2"
		private.CurrentQuestion = "Who snores loudest?"
	case types.PhaseRevealQuestion:
		g.TargetPlayerUID = "p2"
		g.NamedPlayerUID = "p3"
		g.RPSWinnerUID = "p2"
		private.CurrentQuestion = "Who snores loudest?"
	case types.PhaseDare:
		g.TargetPlayerUID = "p2"
		private.CurrentQuestion = "Who snores loudest?"
	case types.PhaseDareRevealed:
		g.TargetPlayerUID = "p2"
		g.DareInitiatorUID = "p1"
		g.DareTargetName = "Paula"
		private.CurrentQuestion = "Who snores loudest?"
		private.CurrentDare = "do 10 pushups"
	}

	orderIndex := func(i int) int {
		if status == types.PhaseLobby {
			return -1
		}
		return i
	}
	players := []*types.Player{
		{UID: "p1", DisplayName: "Lena", IsOnline: true, OrderIndex: orderIndex(0)},
		{UID: "p2", DisplayName: "Paula", IsOnline: true, OrderIndex: orderIndex(1)},
		{UID: "p3", DisplayName: "Milo", IsOnline: true, OrderIndex: orderIndex(2)},
		{UID: "p4", DisplayName: "Sam", IsOnline: false, OrderIndex: orderIndex(3)},
	}

	return Snapshot{Game: g, Players: players, Private: private}
}

func testEnv() Env {
	return Env{Now: testNow, NextQuestion: "Who is most likely to be late?"}
}

func TestDecide_Join(t *testing.T) {
	snap := testSnapshot(types.PhaseLobby)

	effects, err := Decide(snap, "p5", &types.Join{DisplayName: "Nora"}, testEnv())
	require.NoError(t, err)
	require.Len(t, effects.Players, 1)
	assert.Equal(t, "p5", effects.Players[0].UID)
	assert.Equal(t, "Nora", effects.Players[0].DisplayName)
	assert.Equal(t, -1, effects.Players[0].OrderIndex)
	assert.True(t, effects.Players[0].IsOnline)

	// rejoin keeps the seat
	effects, err = Decide(snap, "p2", &types.Join{DisplayName: "Paula P"}, testEnv())
	require.NoError(t, err)
	require.Len(t, effects.Players, 1)
	assert.Equal(t, "p2", effects.Players[0].UID)
	assert.Equal(t, "Paula P", effects.Players[0].DisplayName)

	// full game
	full := testSnapshot(types.PhaseLobby)
	for _, uid := range []string{"p5", "p6", "p7", "p8", "p9"} {
		full.Players = append(full.Players, types.NewPlayer(uid, "extra "+uid))
	}
	_, err = Decide(full, "p10", &types.Join{DisplayName: "Tenth"}, testEnv())
	requireGuard(t, err, RejectGameFull)

	// cannot join a started game
	_, err = Decide(testSnapshot(types.PhaseWhispering), "p5", &types.Join{DisplayName: "Nora"}, testEnv())
	requireGuard(t, err, RejectWrongPhase)
}

func TestDecide_Start(t *testing.T) {
	snap := testSnapshot(types.PhaseLobby)
	env := testEnv()
	env.ShuffledOrder = []int{2, 0, 3, 1}

	effects, err := Decide(snap, "p1", &types.Start{}, env)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWhispering, effects.Game.Status)
	require.Len(t, effects.Players, 4)

	seen := map[int]bool{}
	for _, p := range effects.Players {
		assert.False(t, seen[p.OrderIndex], "duplicate order index %d", p.OrderIndex)
		seen[p.OrderIndex] = true
		assert.GreaterOrEqual(t, p.OrderIndex, 0)
		assert.Less(t, p.OrderIndex, 4)
	}
	// active turn belongs to the order-0 player
	assert.Equal(t, "p2", effects.Game.ActiveTurnUID)
	assert.Equal(t, testNow, effects.Game.LastUpdated)
}

func TestDecide_StartGuards(t *testing.T) {
	tests := []struct {
		name     string
		players  int
		actorUID string
		want     RejectionCode
	}{
		{name: "too few players", players: 3, actorUID: "p1", want: RejectRosterSize},
		{name: "not the leader", players: 4, actorUID: "p2", want: RejectWrongActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot(types.PhaseLobby)
			snap.Players = snap.Players[:tt.players]
			env := testEnv()
			env.ShuffledOrder = make([]int, tt.players)
			_, err := Decide(snap, tt.actorUID, &types.Start{}, env)
			requireGuard(t, err, tt.want)
		})
	}
}

func TestDecide_SubmitQuestion(t *testing.T) {
	snap := testSnapshot(types.PhaseWhispering)

	effects, err := Decide(snap, "p1", &types.SubmitQuestion{TargetUID: "p2", Text: "Who snores loudest?"}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseAnswering, effects.Game.Status)
	assert.Equal(t, "p2", effects.Game.TargetPlayerUID)
	require.NotNil(t, effects.Private)
	assert.Equal(t, "Who snores loudest?", effects.Private.CurrentQuestion)

	_, err = Decide(snap, "p2", &types.SubmitQuestion{TargetUID: "p3", Text: "q"}, testEnv())
	requireGuard(t, err, RejectWrongActor)

	_, err = Decide(snap, "p1", &types.SubmitQuestion{TargetUID: "p1", Text: "q"}, testEnv())
	requireGuard(t, err, RejectInvalidTarget)

	_, err = Decide(snap, "p1", &types.SubmitQuestion{TargetUID: "nobody", Text: "q"}, testEnv())
	requireGuard(t, err, RejectInvalidTarget)

	_, err = Decide(snap, "p1", &types.SubmitQuestion{TargetUID: "p2"}, testEnv())
	requireGuard(t, err, RejectInvalidInput)
}

func TestDecide_SubmitAnswer(t *testing.T) {
	snap := testSnapshot(types.PhaseAnswering)

	effects, err := Decide(snap, "p2", &types.SubmitAnswer{NamedUID: "p3"}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseChallengeDecision, effects.Game.Status)
	assert.Equal(t, "p3", effects.Game.NamedPlayerUID)

	_, err = Decide(snap, "p3", &types.SubmitAnswer{NamedUID: "p1"}, testEnv())
	requireGuard(t, err, RejectWrongActor)

	_, err = Decide(snap, "p2", &types.SubmitAnswer{NamedUID: "nobody"}, testEnv())
	requireGuard(t, err, RejectInvalidTarget)

	// naming yourself would leave a duel with a single duelist that can
	// never produce a winner
	_, err = Decide(snap, "p2", &types.SubmitAnswer{NamedUID: "p2"}, testEnv())
	requireGuard(t, err, RejectInvalidTarget)
}

func TestDecide_PassAndDareFlow(t *testing.T) {
	// target passes, the answer is replaced by a dare
	snap := testSnapshot(types.PhaseAnswering)
	effects, err := Decide(snap, "p2", &types.Pass{}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseDare, effects.Game.Status)

	// asker sets the dare
	snap = testSnapshot(types.PhaseDare)
	effects, err = Decide(snap, "p1", &types.SubmitDare{Text: "do 10 pushups"}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseDareRevealed, effects.Game.Status)
	assert.Equal(t, "p1", effects.Game.DareInitiatorUID)
	assert.Equal(t, "Paula", effects.Game.DareTargetName)
	require.NotNil(t, effects.Private)
	assert.Equal(t, "do 10 pushups", effects.Private.CurrentDare)

	_, err = Decide(snap, "p2", &types.SubmitDare{Text: "x"}, testEnv())
	requireGuard(t, err, RejectWrongActor)

	// asker acknowledges, the next round starts and the dare is preserved
	snap = testSnapshot(types.PhaseDareRevealed)
	effects, err = Decide(snap, "p1", &types.AcknowledgeDare{}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWhispering, effects.Game.Status)
	assert.Equal(t, "p2", effects.Game.ActiveTurnUID)
	assert.Equal(t, "Who is most likely to be late?", effects.Private.CurrentQuestion)
	assert.Equal(t, "do 10 pushups", effects.Private.CurrentDare)
}

func TestDecide_ChallengeDecision(t *testing.T) {
	snap := testSnapshot(types.PhaseChallengeDecision)

	effects, err := Decide(snap, "p3", &types.Decide{Challenge: true}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseRPSChallenge, effects.Game.Status)
	assert.Empty(t, effects.Game.RPSScores)
	assert.Empty(t, effects.Game.RPSChoices)

	effects, err = Decide(snap, "p3", &types.Decide{Challenge: false}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWhispering, effects.Game.Status)
	assert.Equal(t, "p2", effects.Game.ActiveTurnUID)

	_, err = Decide(snap, "p2", &types.Decide{Challenge: true}, testEnv())
	requireGuard(t, err, RejectWrongActor)
}

func TestDecide_DuelFirstToTwo(t *testing.T) {
	snap := testSnapshot(types.PhaseRPSChallenge)

	// sub-round one: target rock beats named scissors
	effects, err := Decide(snap, "p2", &types.ChooseMove{Move: types.MoveRock}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseRPSChallenge, effects.Game.Status)
	snap.Game = effects.Game

	effects, err = Decide(snap, "p3", &types.ChooseMove{Move: types.MoveScissors}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseRPSChallenge, effects.Game.Status)
	assert.Equal(t, 1, effects.Game.RPSScores["p2"])
	assert.Empty(t, effects.Game.RPSChoices, "choices reset after each sub-round")
	snap.Game = effects.Game

	// sub-round two: same moves, duel ends
	effects, err = Decide(snap, "p2", &types.ChooseMove{Move: types.MoveRock}, testEnv())
	require.NoError(t, err)
	snap.Game = effects.Game
	effects, err = Decide(snap, "p3", &types.ChooseMove{Move: types.MoveScissors}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseLeaderDecision, effects.Game.Status)
	assert.Equal(t, 2, effects.Game.RPSScores["p2"])
	assert.Equal(t, "p2", effects.Game.RPSWinnerUID)
}

func TestDecide_DuelTie(t *testing.T) {
	snap := testSnapshot(types.PhaseRPSChallenge)
	snap.Game.RPSChoices["p2"] = types.MovePaper

	effects, err := Decide(snap, "p3", &types.ChooseMove{Move: types.MovePaper}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseRPSChallenge, effects.Game.Status)
	assert.Empty(t, effects.Game.RPSScores)
	assert.Empty(t, effects.Game.RPSChoices)
}

func TestDecide_DuelRejectsThirdParty(t *testing.T) {
	snap := testSnapshot(types.PhaseRPSChallenge)

	_, err := Decide(snap, "p4", &types.ChooseMove{Move: types.MoveRock}, testEnv())
	requireGuard(t, err, RejectWrongActor)

	_, err = Decide(snap, "p1", &types.ChooseMove{Move: types.MoveRock}, testEnv())
	requireGuard(t, err, RejectWrongActor)

	_, err = Decide(snap, "p2", &types.ChooseMove{Move: "lizard"}, testEnv())
	requireGuard(t, err, RejectInvalidInput)
}

func TestDecide_LeaderDecision(t *testing.T) {
	snap := testSnapshot(types.PhaseLeaderDecision)

	effects, err := Decide(snap, "p1", &types.Reveal{}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseRevealQuestion, effects.Game.Status)

	effects, err = Decide(snap, "p1", &types.Skip{}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWhispering, effects.Game.Status)
	assert.Equal(t, "p2", effects.Game.ActiveTurnUID)

	_, err = Decide(snap, "p2", &types.Reveal{}, testEnv())
	requireGuard(t, err, RejectWrongActor)

	// after a reveal, only the leader starts the next round
	snap = testSnapshot(types.PhaseRevealQuestion)
	effects, err = Decide(snap, "p1", &types.NextRound{}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWhispering, effects.Game.Status)

	_, err = Decide(snap, "p3", &types.NextRound{}, testEnv())
	requireGuard(t, err, RejectWrongActor)
}

func TestDecide_EndSession(t *testing.T) {
	for _, status := range []types.Phase{
		types.PhaseLobby,
		types.PhaseWhispering,
		types.PhaseRPSChallenge,
		types.PhaseDareRevealed,
	} {
		snap := testSnapshot(status)
		effects, err := Decide(snap, "p1", &types.EndSession{}, testEnv())
		require.NoError(t, err, "end session during %s", status)
		assert.Equal(t, types.PhaseEnded, effects.Game.Status)
		assert.True(t, effects.Purge)

		_, err = Decide(snap, "p2", &types.EndSession{}, testEnv())
		requireGuard(t, err, RejectWrongActor)
	}

	snap := testSnapshot(types.PhaseEnded)
	_, err := Decide(snap, "p1", &types.EndSession{}, testEnv())
	requireGuard(t, err, RejectWrongPhase)
}

// Every transition into WHISPERING clears all per-round transient fields.
func TestDecide_RoundResetInvariant(t *testing.T) {
	tests := []struct {
		name   string
		status types.Phase
		actor  string
		action types.Action
	}{
		{name: "acknowledge dare", status: types.PhaseDareRevealed, actor: "p1", action: &types.AcknowledgeDare{}},
		{name: "let it slide", status: types.PhaseChallengeDecision, actor: "p3", action: &types.Decide{Challenge: false}},
		{name: "leader skips", status: types.PhaseLeaderDecision, actor: "p1", action: &types.Skip{}},
		{name: "next round after reveal", status: types.PhaseRevealQuestion, actor: "p1", action: &types.NextRound{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot(tt.status)
			snap.Game.RPSScores = map[string]int{"p2": 2}
			snap.Game.RPSChoices = map[string]types.Move{"p2": types.MoveRock}

			effects, err := Decide(snap, tt.actor, tt.action, testEnv())
			require.NoError(t, err)
			g := effects.Game
			assert.Equal(t, types.PhaseWhispering, g.Status)
			assert.Empty(t, g.TargetPlayerUID)
			assert.Empty(t, g.NamedPlayerUID)
			assert.Empty(t, g.RPSWinnerUID)
			assert.Empty(t, g.DareInitiatorUID)
			assert.Empty(t, g.DareTargetName)
			assert.Empty(t, g.RPSScores)
			assert.Empty(t, g.RPSChoices)
			assert.Equal(t, "p2", g.ActiveTurnUID, "turn advances to the next player")
			assert.Equal(t, "Who is most likely to be late?", effects.Private.CurrentQuestion)
		})
	}
}

// For every (phase, action) pair outside the transition table, Decide
// returns a guard violation for every possible actor and never mutates
// the snapshot.
func TestDecide_PhaseTableCompleteness(t *testing.T) {
	allowed := map[types.Phase]map[types.ActionType]bool{
		types.PhaseLobby:             {types.ActionJoin: true, types.ActionStart: true},
		types.PhaseWhispering:        {types.ActionSubmitQuestion: true},
		types.PhaseAnswering:         {types.ActionSubmitAnswer: true, types.ActionPass: true},
		types.PhaseChallengeDecision: {types.ActionDecide: true},
		types.PhaseRPSChallenge:      {types.ActionChooseMove: true},
		types.PhaseLeaderDecision:    {types.ActionReveal: true, types.ActionSkip: true},
		types.PhaseRevealQuestion:    {types.ActionNextRound: true},
		types.PhaseDare:              {types.ActionSubmitDare: true},
		types.PhaseDareRevealed:      {types.ActionAcknowledgeDare: true},
		types.PhaseEnded:             {},
	}

	actions := []types.Action{
		&types.Join{DisplayName: "Nora"},
		&types.Start{},
		&types.SubmitQuestion{TargetUID: "p2", Text: "q"},
		&types.SubmitAnswer{NamedUID: "p3"},
		&types.Pass{},
		&types.SubmitDare{Text: "d"},
		&types.AcknowledgeDare{},
		&types.Decide{Challenge: true},
		&types.ChooseMove{Move: types.MoveRock},
		&types.Reveal{},
		&types.Skip{},
		&types.NextRound{},
	}
	actors := []string{"p1", "p2", "p3", "p4"}

	for phase, legal := range allowed {
		for _, action := range actions {
			if legal[action.ActionType()] {
				continue
			}
			for _, actor := range actors {
				snap := testSnapshot(phase)
				before := Snapshot{
					Game:    snap.Game.Copy(),
					Private: snap.Private.Copy(),
				}
				_, err := Decide(snap, actor, action, testEnv())
				require.Error(t, err, "%s by %s during %s must be rejected", action.ActionType(), actor, phase)
				assert.True(t, IsGuardViolation(err), "%s during %s: got %v", action.ActionType(), phase, err)
				assert.Equal(t, before.Game, snap.Game, "snapshot mutated by rejected %s during %s", action.ActionType(), phase)
				assert.Equal(t, before.Private, snap.Private, "private data mutated by rejected %s during %s", action.ActionType(), phase)
			}
		}
	}
}

func requireGuard(t *testing.T, err error, code RejectionCode) {
	t.Helper()
	require.Error(t, err)
	violation, ok := AsGuardViolation(err)
	require.True(t, ok, "expected guard violation, got %v", err)
	assert.Equal(t, code, violation.Code)
}
