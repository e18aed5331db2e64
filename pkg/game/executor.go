package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/partyline/whispered/pkg/game/constants"
	"github.com/partyline/whispered/pkg/game/types"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/metrics"
	"github.com/partyline/whispered/pkg/questions"
	"github.com/partyline/whispered/pkg/store"
)

const (
	defaultMaxAttempts  = 5
	defaultRetryBackoff = 50 * time.Millisecond
	createCodeAttempts  = 5
)

// Executor applies one phase transition as a single atomic store
// transaction. Guards are evaluated against a fresh in-transaction read,
// so a caller holding a stale snapshot loses the race and gets a typed
// rejection instead of a partial write.
type Executor struct {
	store        store.Store
	questions    questions.Source
	metrics      *metrics.Metrics
	maxAttempts  int
	retryBackoff time.Duration
	// rngMu serializes draws; rand.Rand is not safe for concurrent use
	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewExecutorOptions contains options for creating a new Executor.
type NewExecutorOptions struct {
	Store     store.Store
	Questions questions.Source
	Metrics   *metrics.Metrics
	// MaxAttempts bounds conflict retries (default 5)
	MaxAttempts int
	// RetryBackoff is the base backoff, doubled per attempt (default 50ms)
	RetryBackoff time.Duration
}

func NewExecutor(opts NewExecutorOptions) *Executor {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryBackoff := opts.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &Executor{
		store:        opts.Store,
		questions:    opts.Questions,
		metrics:      opts.Metrics,
		maxAttempts:  maxAttempts,
		retryBackoff: retryBackoff,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
}

// Result is the public snapshot after a committed transition. Private
// data is never included; callers read it through ViewPrivate.
type Result struct {
	Game    *types.Game     `json:"game"`
	Players []*types.Player `json:"players"`
}

// Apply validates and executes one player action against the game.
// Conflicts with concurrent writers are retried with exponential backoff
// up to the attempt bound, then surfaced as a conflict error.
func (e *Executor) Apply(ctx context.Context, code string, actorUID string, action types.Action) (*Result, error) {
	env := Env{Now: e.now()}
	if drawsQuestion(action) {
		question, err := e.questions.Draw(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to draw question: %v", err)
		}
		env.NextQuestion = question
	}

	var result *Result
	var purge bool
	for attempt := 0; ; attempt++ {
		err := e.store.RunTransaction(ctx, code, func(ctx context.Context, tx store.Tx) error {
			snap, err := e.loadSnapshot(tx)
			if err != nil {
				return err
			}
			if _, ok := action.(*types.Start); ok {
				env.ShuffledOrder = e.shuffledOrder(len(snap.Players))
			}

			effects, err := Decide(snap, actorUID, action, env)
			if err != nil {
				return err
			}

			tx.SetGame(effects.Game)
			for _, p := range effects.Players {
				tx.SetPlayer(p)
			}
			if effects.Private != nil {
				tx.SetPrivateData(effects.Private)
			}

			purge = effects.Purge
			result = &Result{
				Game:    effects.Game,
				Players: mergePlayers(snap.Players, effects.Players),
			}
			return nil
		})
		if err == nil {
			break
		}
		if store.IsConflict(err) {
			e.metrics.IncConflict()
			if attempt+1 < e.maxAttempts {
				if backoffErr := sleepContext(ctx, e.retryBackoff<<attempt); backoffErr != nil {
					return nil, &store.ErrUnavailable{Cause: backoffErr}
				}
				continue
			}
			return nil, err
		}
		if violation, ok := AsGuardViolation(err); ok {
			e.metrics.IncRejection(string(violation.Code))
		}
		return nil, err
	}

	if purge {
		if err := PurgeGame(ctx, e.store, code); err != nil {
			return nil, fmt.Errorf("failed to purge game %s: %v", code, err)
		}
	}

	e.metrics.IncTransition(string(action.ActionType()))
	return result, nil
}

// CreateGame creates a new session in LOBBY with the creator joined as
// leader and a first question drawn. Code collisions are retried.
func (e *Executor) CreateGame(ctx context.Context, name string, leaderUID string, displayName string) (*Result, error) {
	if leaderUID == "" || displayName == "" {
		return nil, reject(RejectInvalidInput, "leader uid and display name are required")
	}

	question, err := e.questions.Draw(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to draw question: %v", err)
	}

	for attempt := 0; attempt < createCodeAttempts; attempt++ {
		code := NewCode()
		leader := types.NewPlayer(leaderUID, displayName)
		g := &types.Game{
			Code:          code,
			Name:          name,
			Status:        types.PhaseLobby,
			LeaderUID:     leaderUID,
			ActiveTurnUID: leaderUID,
			LastUpdated:   e.now(),
		}

		err := e.store.RunTransaction(ctx, code, func(ctx context.Context, tx store.Tx) error {
			if _, err := tx.Game(); err == nil {
				return &store.ErrConflict{}
			} else if !store.IsNotFound(err) {
				return err
			}
			tx.SetGame(g)
			tx.SetPlayer(leader)
			tx.SetPrivateData(&types.PrivateData{CurrentQuestion: question})
			return nil
		})
		if err == nil {
			return &Result{Game: g, Players: []*types.Player{leader}}, nil
		}
		if store.IsConflict(err) {
			log.Debug("Game code %s collided, regenerating", code)
			continue
		}
		return nil, err
	}
	return nil, &store.ErrConflict{}
}

// SetPresence flips a player's online flag. It deliberately bypasses the
// transition transaction; presence never gates gameplay.
func (e *Executor) SetPresence(ctx context.Context, code string, uid string, online bool) error {
	return e.store.SetPresence(ctx, code, uid, online)
}

func (e *Executor) shuffledOrder(n int) []int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return ShuffledOrder(n, e.rng)
}

func (e *Executor) loadSnapshot(tx store.Tx) (Snapshot, error) {
	g, err := tx.Game()
	if err != nil {
		return Snapshot{}, err
	}
	players, err := tx.Players()
	if err != nil {
		return Snapshot{}, err
	}
	private, err := tx.PrivateData()
	if err != nil {
		if !store.IsNotFound(err) {
			return Snapshot{}, err
		}
		private = &types.PrivateData{}
	}
	return Snapshot{Game: g, Players: players, Private: private}, nil
}

// PurgeGame tears a session down with the same sequence everywhere it is
// deleted: player documents in bounded batches until the subcollection is
// empty, then the private document, then the game document.
func PurgeGame(ctx context.Context, s store.Store, code string) error {
	for {
		deleted, err := s.DeletePlayers(ctx, code, constants.PurgeBatchSize)
		if err != nil {
			return fmt.Errorf("failed to delete players: %v", err)
		}
		if deleted == 0 {
			break
		}
	}
	if err := s.DeletePrivateData(ctx, code); err != nil {
		return fmt.Errorf("failed to delete private data: %v", err)
	}
	if err := s.DeleteGame(ctx, code); err != nil {
		return fmt.Errorf("failed to delete game: %v", err)
	}
	return nil
}

// drawsQuestion reports whether the action can begin a new round and so
// needs a question drawn before the transaction opens.
func drawsQuestion(action types.Action) bool {
	switch action.(type) {
	case *types.AcknowledgeDare, *types.Decide, *types.Skip, *types.NextRound:
		return true
	}
	return false
}

func mergePlayers(current []*types.Player, updates []*types.Player) []*types.Player {
	if len(updates) == 0 {
		return current
	}
	byUID := make(map[string]*types.Player, len(current)+len(updates))
	merged := make([]*types.Player, 0, len(current)+len(updates))
	for _, p := range current {
		byUID[p.UID] = p
		merged = append(merged, p)
	}
	for _, p := range updates {
		if existing, ok := byUID[p.UID]; ok {
			*existing = *p
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
