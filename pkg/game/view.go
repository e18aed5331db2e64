package game

import "github.com/partyline/whispered/pkg/game/types"

// PrivateView is the slice of the secret strings one actor is allowed to
// see in the current phase. The full PrivateData document is never sent
// to clients.
type PrivateView struct {
	Question string `json:"question,omitempty"`
	Dare     string `json:"dare,omitempty"`
}

// ViewPrivate filters the private data for one actor. The question is
// visible to the asker while whispering, to the asker and target while an
// answer or challenge is pending, and to everyone once revealed. The dare
// is public once revealed and stays visible through the next round.
func ViewPrivate(g *types.Game, private *types.PrivateData, actorUID string) PrivateView {
	view := PrivateView{}
	if private == nil {
		return view
	}

	switch g.Status {
	case types.PhaseWhispering:
		if actorUID == g.ActiveTurnUID {
			view.Question = private.CurrentQuestion
		}
		view.Dare = private.CurrentDare
	case types.PhaseAnswering, types.PhaseChallengeDecision:
		if actorUID == g.ActiveTurnUID || actorUID == g.TargetPlayerUID {
			view.Question = private.CurrentQuestion
		}
	case types.PhaseRevealQuestion:
		view.Question = private.CurrentQuestion
	case types.PhaseDareRevealed:
		view.Dare = private.CurrentDare
	}
	return view
}
