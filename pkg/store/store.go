package store

import (
	"context"
	"time"

	"github.com/partyline/whispered/pkg/game/types"
)

// Store is the entity store for game sessions. Each game is a document
// group (game + players + private data) and the game document is the
// serialization point: two transactions racing on the same group commit
// at most one winner, the loser fails with ErrConflict.
type Store interface {
	// RunTransaction executes fn against a fresh read of the game's
	// document group and commits its writes atomically. A conflicting
	// concurrent commit surfaces as ErrConflict.
	RunTransaction(ctx context.Context, code string, fn func(ctx context.Context, tx Tx) error) error

	GetGame(ctx context.Context, code string) (*types.Game, error)
	GetPlayers(ctx context.Context, code string) ([]*types.Player, error)
	GetPrivateData(ctx context.Context, code string) (*types.PrivateData, error)

	// SetPresence flips a player's online flag outside of any phase
	// transaction. Presence races harmlessly with transitions since it
	// touches a disjoint field.
	SetPresence(ctx context.Context, code string, uid string, online bool) error

	// WatchGame streams snapshots of the game document until ctx is
	// cancelled. The returned channel is closed when the watch ends.
	WatchGame(ctx context.Context, code string) (<-chan *types.Game, error)

	// StaleGames returns the codes of games whose lastUpdated is older
	// than the cutoff.
	StaleGames(ctx context.Context, olderThan time.Time) ([]string, error)

	// DeletePlayers deletes up to limit player documents of the game and
	// returns how many were deleted. Callers loop until it returns zero.
	DeletePlayers(ctx context.Context, code string, limit int) (int, error)
	DeletePrivateData(ctx context.Context, code string) error
	DeleteGame(ctx context.Context, code string) error

	Close() error
}

// Tx is one transaction over a single game's document group. Reads see
// the committed pre-transaction state; writes are buffered and applied
// atomically when the transaction commits.
type Tx interface {
	Game() (*types.Game, error)
	Players() ([]*types.Player, error)
	PrivateData() (*types.PrivateData, error)

	SetGame(g *types.Game)
	SetPlayer(p *types.Player)
	SetPrivateData(p *types.PrivateData)
}
