package types

import "fmt"

// RoundData is a typed view of the fields that are meaningful in the
// current phase. The flat Game document stays the storage format; deriving
// a RoundData fails if the document's transient fields are inconsistent
// with its status, so callers never have to guess which fields are valid.
type RoundData interface {
	roundData()
}

type LobbyRound struct{}

type WhisperingRound struct {
	AskerUID string
	Question string
	// LastDare is carried over from the previous round for display
	LastDare string
}

type AnsweringRound struct {
	AskerUID  string
	TargetUID string
	Question  string
}

type ChallengeDecisionRound struct {
	TargetUID string
	NamedUID  string
}

type DuelRound struct {
	TargetUID string
	NamedUID  string
	Scores    map[string]int
	Choices   map[string]Move
}

type LeaderDecisionRound struct {
	WinnerUID string
}

type RevealQuestionRound struct {
	Question string
}

type DareRound struct {
	AskerUID  string
	TargetUID string
}

type DareRevealedRound struct {
	Dare         string
	InitiatorUID string
	TargetName   string
}

type EndedRound struct{}

func (LobbyRound) roundData()             {}
func (WhisperingRound) roundData()        {}
func (AnsweringRound) roundData()         {}
func (ChallengeDecisionRound) roundData() {}
func (DuelRound) roundData()              {}
func (LeaderDecisionRound) roundData()    {}
func (RevealQuestionRound) roundData()    {}
func (DareRound) roundData()              {}
func (DareRevealedRound) roundData()      {}
func (EndedRound) roundData()             {}

// Round derives the typed per-phase view from the flat documents.
func Round(g *Game, private *PrivateData) (RoundData, error) {
	switch g.Status {
	case PhaseLobby:
		return LobbyRound{}, nil
	case PhaseWhispering:
		if err := requireQuestion(g, private); err != nil {
			return nil, err
		}
		return WhisperingRound{
			AskerUID: g.ActiveTurnUID,
			Question: private.CurrentQuestion,
			LastDare: private.CurrentDare,
		}, nil
	case PhaseAnswering:
		if err := requireQuestion(g, private); err != nil {
			return nil, err
		}
		if g.TargetPlayerUID == "" {
			return nil, fmt.Errorf("game %s is ANSWERING with no target player", g.Code)
		}
		return AnsweringRound{
			AskerUID:  g.ActiveTurnUID,
			TargetUID: g.TargetPlayerUID,
			Question:  private.CurrentQuestion,
		}, nil
	case PhaseChallengeDecision:
		if err := requireQuestion(g, private); err != nil {
			return nil, err
		}
		if g.TargetPlayerUID == "" || g.NamedPlayerUID == "" {
			return nil, fmt.Errorf("game %s is CHALLENGE_DECISION with missing participants", g.Code)
		}
		return ChallengeDecisionRound{
			TargetUID: g.TargetPlayerUID,
			NamedUID:  g.NamedPlayerUID,
		}, nil
	case PhaseRPSChallenge:
		if g.TargetPlayerUID == "" || g.NamedPlayerUID == "" {
			return nil, fmt.Errorf("game %s is RPS_CHALLENGE with missing duelists", g.Code)
		}
		return DuelRound{
			TargetUID: g.TargetPlayerUID,
			NamedUID:  g.NamedPlayerUID,
			Scores:    g.RPSScores,
			Choices:   g.RPSChoices,
		}, nil
	case PhaseLeaderDecision:
		if g.RPSWinnerUID == "" {
			return nil, fmt.Errorf("game %s is LEADER_DECISION with no duel winner", g.Code)
		}
		return LeaderDecisionRound{WinnerUID: g.RPSWinnerUID}, nil
	case PhaseRevealQuestion:
		if err := requireQuestion(g, private); err != nil {
			return nil, err
		}
		return RevealQuestionRound{Question: private.CurrentQuestion}, nil
	case PhaseDare:
		if g.TargetPlayerUID == "" {
			return nil, fmt.Errorf("game %s is DARE with no target player", g.Code)
		}
		return DareRound{
			AskerUID:  g.ActiveTurnUID,
			TargetUID: g.TargetPlayerUID,
		}, nil
	case PhaseDareRevealed:
		if private == nil || private.CurrentDare == "" {
			return nil, fmt.Errorf("game %s is DARE_REVEALED with no dare", g.Code)
		}
		return DareRevealedRound{
			Dare:         private.CurrentDare,
			InitiatorUID: g.DareInitiatorUID,
			TargetName:   g.DareTargetName,
		}, nil
	case PhaseEnded:
		return EndedRound{}, nil
	}
	return nil, fmt.Errorf("game %s has unknown status %q", g.Code, g.Status)
}

func requireQuestion(g *Game, private *PrivateData) error {
	if private == nil || private.CurrentQuestion == "" {
		return fmt.Errorf("game %s is %s with no current question", g.Code, g.Status)
	}
	return nil
}
