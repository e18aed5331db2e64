package game

import (
	"fmt"
	"time"

	"github.com/partyline/whispered/pkg/game/constants"
	"github.com/partyline/whispered/pkg/game/types"
)

// Snapshot is the current document group of one game, read fresh inside
// the executor's transaction.
type Snapshot struct {
	Game    *types.Game
	Players []*types.Player
	Private *types.PrivateData
}

func (s Snapshot) player(uid string) *types.Player {
	for _, p := range s.Players {
		if p.UID == uid {
			return p
		}
	}
	return nil
}

// Env carries the non-deterministic inputs of a transition, resolved by
// the executor before the decision runs: the wall clock, a freshly drawn
// question for transitions that begin a new round, and a shuffled order
// for the start transition. Keeping them out of the decision itself keeps
// Decide pure.
type Env struct {
	Now           time.Time
	NextQuestion  string
	ShuffledOrder []int
}

// Effects is the set of document writes produced by one accepted
// transition. The executor applies all of them atomically.
type Effects struct {
	Game    *types.Game
	Private *types.PrivateData
	// Players are player documents to upsert (join, order assignment)
	Players []*types.Player
	// Purge requests session teardown after the transition commits
	Purge bool
}

// Decide validates one player action against the current snapshot and
// computes the next state. It never mutates the snapshot; a guard
// violation returns a typed rejection and no effects.
func Decide(snap Snapshot, actorUID string, action types.Action, env Env) (*Effects, error) {
	if actorUID == "" {
		return nil, reject(RejectWrongActor, "missing actor")
	}

	g := snap.Game.Copy()
	g.LastUpdated = env.Now

	switch a := action.(type) {
	case *types.Join:
		return decideJoin(snap, g, actorUID, a)

	case *types.Start:
		return decideStart(snap, g, actorUID, env)

	case *types.SubmitQuestion:
		if g.Status != types.PhaseWhispering {
			return nil, reject(RejectWrongPhase, "cannot ask a question during %s", g.Status)
		}
		if actorUID != g.ActiveTurnUID {
			return nil, reject(RejectWrongActor, "it is not %s's turn", actorUID)
		}
		if a.Text == "" {
			return nil, reject(RejectInvalidInput, "question text is empty")
		}
		if a.TargetUID == actorUID {
			return nil, reject(RejectInvalidTarget, "cannot whisper to yourself")
		}
		if snap.player(a.TargetUID) == nil {
			return nil, reject(RejectInvalidTarget, "player %s is not in this game", a.TargetUID)
		}
		g.Status = types.PhaseAnswering
		g.TargetPlayerUID = a.TargetUID
		private := snap.Private.Copy()
		private.CurrentQuestion = a.Text
		return &Effects{Game: g, Private: private}, nil

	case *types.SubmitAnswer:
		if g.Status != types.PhaseAnswering {
			return nil, reject(RejectWrongPhase, "cannot answer during %s", g.Status)
		}
		if actorUID != g.TargetPlayerUID {
			return nil, reject(RejectWrongActor, "only the target player may answer")
		}
		if a.NamedUID == actorUID {
			return nil, reject(RejectInvalidTarget, "cannot name yourself")
		}
		if snap.player(a.NamedUID) == nil {
			return nil, reject(RejectInvalidTarget, "player %s is not in this game", a.NamedUID)
		}
		g.Status = types.PhaseChallengeDecision
		g.NamedPlayerUID = a.NamedUID
		return &Effects{Game: g}, nil

	case *types.Pass:
		if g.Status != types.PhaseAnswering {
			return nil, reject(RejectWrongPhase, "cannot pass during %s", g.Status)
		}
		if actorUID != g.TargetPlayerUID {
			return nil, reject(RejectWrongActor, "only the target player may pass")
		}
		// passing always earns a dare, that is the rule
		g.Status = types.PhaseDare
		return &Effects{Game: g}, nil

	case *types.SubmitDare:
		if g.Status != types.PhaseDare {
			return nil, reject(RejectWrongPhase, "cannot submit a dare during %s", g.Status)
		}
		if actorUID != g.ActiveTurnUID {
			return nil, reject(RejectWrongActor, "only the asker may set the dare")
		}
		if a.Text == "" {
			return nil, reject(RejectInvalidInput, "dare text is empty")
		}
		target := snap.player(g.TargetPlayerUID)
		if target == nil {
			return nil, fmt.Errorf("target player %s missing from roster", g.TargetPlayerUID)
		}
		g.Status = types.PhaseDareRevealed
		g.DareInitiatorUID = actorUID
		g.DareTargetName = target.DisplayName
		private := snap.Private.Copy()
		private.CurrentDare = a.Text
		return &Effects{Game: g, Private: private}, nil

	case *types.AcknowledgeDare:
		if g.Status != types.PhaseDareRevealed {
			return nil, reject(RejectWrongPhase, "cannot acknowledge a dare during %s", g.Status)
		}
		if actorUID != g.ActiveTurnUID {
			return nil, reject(RejectWrongActor, "only the asker may start the next round")
		}
		return startNextRound(snap, g, env)

	case *types.Decide:
		if g.Status != types.PhaseChallengeDecision {
			return nil, reject(RejectWrongPhase, "cannot decide during %s", g.Status)
		}
		if actorUID != g.NamedPlayerUID {
			return nil, reject(RejectWrongActor, "only the named player may decide")
		}
		if !a.Challenge {
			return startNextRound(snap, g, env)
		}
		g.Status = types.PhaseRPSChallenge
		g.RPSScores = map[string]int{}
		g.RPSChoices = map[string]types.Move{}
		return &Effects{Game: g}, nil

	case *types.ChooseMove:
		return decideMove(g, actorUID, a)

	case *types.Reveal:
		if g.Status != types.PhaseLeaderDecision {
			return nil, reject(RejectWrongPhase, "cannot reveal during %s", g.Status)
		}
		if actorUID != g.LeaderUID {
			return nil, reject(RejectWrongActor, "only the leader may reveal the question")
		}
		g.Status = types.PhaseRevealQuestion
		return &Effects{Game: g}, nil

	case *types.Skip:
		if g.Status != types.PhaseLeaderDecision {
			return nil, reject(RejectWrongPhase, "cannot skip during %s", g.Status)
		}
		if actorUID != g.LeaderUID {
			return nil, reject(RejectWrongActor, "only the leader may skip")
		}
		return startNextRound(snap, g, env)

	case *types.NextRound:
		if g.Status != types.PhaseRevealQuestion {
			return nil, reject(RejectWrongPhase, "cannot start the next round during %s", g.Status)
		}
		if actorUID != g.LeaderUID {
			return nil, reject(RejectWrongActor, "only the leader may start the next round")
		}
		return startNextRound(snap, g, env)

	case *types.EndSession:
		if g.Status == types.PhaseEnded {
			return nil, reject(RejectWrongPhase, "game has already ended")
		}
		if actorUID != g.LeaderUID {
			return nil, reject(RejectWrongActor, "only the leader may end the session")
		}
		g.Status = types.PhaseEnded
		return &Effects{Game: g, Purge: true}, nil
	}

	return nil, reject(RejectInvalidInput, "unknown action %T", action)
}

func decideJoin(snap Snapshot, g *types.Game, actorUID string, a *types.Join) (*Effects, error) {
	if g.Status != types.PhaseLobby {
		return nil, reject(RejectWrongPhase, "game %s has already started", g.Code)
	}
	if a.DisplayName == "" {
		return nil, reject(RejectInvalidInput, "display name is empty")
	}
	if existing := snap.player(actorUID); existing != nil {
		// rejoin keeps the existing seat
		rejoined := existing.Copy()
		rejoined.DisplayName = a.DisplayName
		rejoined.IsOnline = true
		return &Effects{Game: g, Players: []*types.Player{rejoined}}, nil
	}
	if len(snap.Players) >= constants.MaxPlayers {
		return nil, reject(RejectGameFull, "this game is full")
	}
	return &Effects{Game: g, Players: []*types.Player{types.NewPlayer(actorUID, a.DisplayName)}}, nil
}

func decideStart(snap Snapshot, g *types.Game, actorUID string, env Env) (*Effects, error) {
	if g.Status != types.PhaseLobby {
		return nil, reject(RejectWrongPhase, "game %s has already started", g.Code)
	}
	if actorUID != g.LeaderUID {
		return nil, reject(RejectWrongActor, "only the leader may start the game")
	}
	if len(snap.Players) < constants.MinPlayers {
		return nil, reject(RejectRosterSize, "a game requires at least %d players to start", constants.MinPlayers)
	}
	if len(snap.Players) > constants.MaxPlayers {
		return nil, reject(RejectRosterSize, "a game cannot have more than %d players", constants.MaxPlayers)
	}
	if len(env.ShuffledOrder) != len(snap.Players) {
		return nil, fmt.Errorf("shuffled order has %d entries for %d players", len(env.ShuffledOrder), len(snap.Players))
	}

	assigned := make([]*types.Player, len(snap.Players))
	var firstUID string
	for i, p := range snap.Players {
		seated := p.Copy()
		seated.OrderIndex = env.ShuffledOrder[i]
		assigned[i] = seated
		if seated.OrderIndex == 0 {
			firstUID = seated.UID
		}
	}

	g.Status = types.PhaseWhispering
	g.LeaderUID = actorUID
	g.ActiveTurnUID = firstUID
	return &Effects{Game: g, Players: assigned}, nil
}

func decideMove(g *types.Game, actorUID string, a *types.ChooseMove) (*Effects, error) {
	if g.Status != types.PhaseRPSChallenge {
		return nil, reject(RejectWrongPhase, "cannot choose a move during %s", g.Status)
	}
	if actorUID != g.TargetPlayerUID && actorUID != g.NamedPlayerUID {
		return nil, reject(RejectWrongActor, "only the duelists may choose a move")
	}
	if !a.Move.Valid() {
		return nil, reject(RejectInvalidInput, "invalid move %q", a.Move)
	}

	if g.RPSChoices == nil {
		g.RPSChoices = map[string]types.Move{}
	}
	if g.RPSScores == nil {
		g.RPSScores = map[string]int{}
	}
	g.RPSChoices[actorUID] = a.Move

	targetMove, targetChose := g.RPSChoices[g.TargetPlayerUID]
	namedMove, namedChose := g.RPSChoices[g.NamedPlayerUID]
	if !targetChose || !namedChose {
		// waiting for the other duelist
		return &Effects{Game: g}, nil
	}

	// both moves in, resolve the sub-round and clear the choices
	g.RPSChoices = map[string]types.Move{}

	if targetMove == namedMove {
		// tie, play another sub-round
		return &Effects{Game: g}, nil
	}

	winnerUID := g.NamedPlayerUID
	if targetMove.Beats(namedMove) {
		winnerUID = g.TargetPlayerUID
	}
	g.RPSScores[winnerUID]++

	if g.RPSScores[winnerUID] >= constants.WinningScore {
		g.Status = types.PhaseLeaderDecision
		g.RPSWinnerUID = winnerUID
	}
	return &Effects{Game: g}, nil
}

// startNextRound advances the turn to the next player in rotation, clears
// every per-round transient field and installs a freshly drawn question.
// The previous dare is preserved for display in the next round.
func startNextRound(snap Snapshot, g *types.Game, env Env) (*Effects, error) {
	if env.NextQuestion == "" {
		return nil, fmt.Errorf("no question drawn for the next round")
	}
	nextUID, err := NextActor(snap.Players, g.ActiveTurnUID)
	if err != nil {
		return nil, err
	}

	g.Status = types.PhaseWhispering
	g.ActiveTurnUID = nextUID
	g.ResetRound()

	private := snap.Private.Copy()
	private.CurrentQuestion = env.NextQuestion
	return &Effects{Game: g, Private: private}, nil
}
