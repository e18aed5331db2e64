package types

import (
	"time"

	"github.com/partyline/whispered/pkg/game/constants"
)

// Phase is the current stage of the per-round protocol.
type Phase string

const (
	PhaseLobby             Phase = "LOBBY"
	PhaseWhispering        Phase = "WHISPERING"
	PhaseAnswering         Phase = "ANSWERING"
	PhaseChallengeDecision Phase = "CHALLENGE_DECISION"
	PhaseRPSChallenge      Phase = "RPS_CHALLENGE"
	PhaseLeaderDecision    Phase = "LEADER_DECISION"
	PhaseRevealQuestion    Phase = "REVEAL_QUESTION"
	PhaseDare              Phase = "DARE"
	PhaseDareRevealed      Phase = "DARE_REVEALED"
	PhaseEnded             Phase = "ENDED"
)

// Move is a rock-paper-scissors choice in a duel sub-round.
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// Valid returns true if the move is one of rock, paper or scissors.
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	}
	return false
}

// Beats returns true if the move wins against other under the cyclic
// dominance rule. Equal moves tie.
func (m Move) Beats(other Move) bool {
	switch m {
	case MoveRock:
		return other == MoveScissors
	case MoveScissors:
		return other == MovePaper
	case MovePaper:
		return other == MoveRock
	}
	return false
}

// Game is the shared public document for one session. Per-round transient
// fields (target, named, dare and duel state) are cleared on every
// transition into WHISPERING.
type Game struct {
	Code             string          `json:"code" firestore:"gameCode"`
	Name             string          `json:"name" firestore:"name"`
	Status           Phase           `json:"status" firestore:"status"`
	LeaderUID        string          `json:"leaderUid" firestore:"leaderId"`
	ActiveTurnUID    string          `json:"activeTurnUid,omitempty" firestore:"activeTurnUid"`
	TargetPlayerUID  string          `json:"targetPlayerUid,omitempty" firestore:"targetPlayerUid"`
	NamedPlayerUID   string          `json:"namedPlayerUid,omitempty" firestore:"namedPlayerUid"`
	DareInitiatorUID string          `json:"dareInitiatorUid,omitempty" firestore:"dareInitiatorUid"`
	DareTargetName   string          `json:"dareTargetName,omitempty" firestore:"dareTargetName"`
	RPSWinnerUID     string          `json:"rpsWinnerUid,omitempty" firestore:"rpsWinnerUid"`
	RPSScores        map[string]int  `json:"rpsScores,omitempty" firestore:"rpsScores"`
	RPSChoices       map[string]Move `json:"rpsChoices,omitempty" firestore:"rpsChoices"`
	LastUpdated      time.Time       `json:"lastUpdated" firestore:"lastUpdated"`
}

// Copy returns a deep copy of the game document.
func (g *Game) Copy() *Game {
	copied := *g
	if g.RPSScores != nil {
		copied.RPSScores = make(map[string]int, len(g.RPSScores))
		for uid, score := range g.RPSScores {
			copied.RPSScores[uid] = score
		}
	}
	if g.RPSChoices != nil {
		copied.RPSChoices = make(map[string]Move, len(g.RPSChoices))
		for uid, move := range g.RPSChoices {
			copied.RPSChoices[uid] = move
		}
	}
	return &copied
}

// ResetRound clears every per-round transient field. Called on each
// transition into WHISPERING.
func (g *Game) ResetRound() {
	g.TargetPlayerUID = ""
	g.NamedPlayerUID = ""
	g.DareInitiatorUID = ""
	g.DareTargetName = ""
	g.RPSWinnerUID = ""
	g.RPSScores = map[string]int{}
	g.RPSChoices = map[string]Move{}
}

// Player is one participant of a game.
type Player struct {
	UID         string `json:"uid" firestore:"uid"`
	DisplayName string `json:"displayName" firestore:"displayName"`
	IsOnline    bool   `json:"isOnline" firestore:"isOnline"`
	OrderIndex  int    `json:"orderIndex" firestore:"orderIndex"`
}

// Copy returns a copy of the player document.
func (p *Player) Copy() *Player {
	copied := *p
	return &copied
}

// NewPlayer creates a player document for a participant joining a lobby.
// The order index stays unassigned until the game starts.
func NewPlayer(uid string, displayName string) *Player {
	return &Player{
		UID:         uid,
		DisplayName: displayName,
		IsOnline:    true,
		OrderIndex:  constants.UnassignedOrder,
	}
}

// PrivateData holds the secret strings of a game. It is stored separately
// from the public Game document and is never broadcast to all clients.
type PrivateData struct {
	CurrentQuestion string `json:"currentQuestion,omitempty" firestore:"currentQuestion"`
	CurrentDare     string `json:"currentDare,omitempty" firestore:"currentDare"`
}

// Copy returns a copy of the private data document.
func (p *PrivateData) Copy() *PrivateData {
	copied := *p
	return &copied
}
