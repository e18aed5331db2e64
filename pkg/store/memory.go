package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/partyline/whispered/pkg/game/types"
)

const watchBufferSize = 16

// memoryGroup is the document group of one game.
type memoryGroup struct {
	game    *types.Game
	players map[string]*types.Player
	private *types.PrivateData
	// version is bumped on every transactional commit and checked at
	// commit time to detect lost races
	version uint64
}

// MemoryStore is an in-memory Store with the same optimistic-concurrency
// semantics as the hosted document store: a transaction that commits
// after a conflicting write fails with ErrConflict. Used by tests and
// local development.
type MemoryStore struct {
	mu       sync.Mutex
	games    map[string]*memoryGroup
	watchers map[string][]chan *types.Game
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:    make(map[string]*memoryGroup),
		watchers: make(map[string][]chan *types.Game),
	}
}

type memoryTx struct {
	store *MemoryStore
	code  string

	// state captured at first read
	readVersion uint64
	exists      bool
	game        *types.Game
	players     []*types.Player
	private     *types.PrivateData
	loaded      bool

	// buffered writes
	setGame    *types.Game
	setPlayers []*types.Player
	setPrivate *types.PrivateData
}

func (s *MemoryStore) RunTransaction(ctx context.Context, code string, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return &ErrUnavailable{Cause: err}
	}

	tx := &memoryTx{store: s, code: code}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx)
}

// load snapshots the game's document group under the lock. The snapshot
// version is what the commit is validated against.
func (tx *memoryTx) load() {
	if tx.loaded {
		return
	}
	tx.loaded = true

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	group, ok := tx.store.games[tx.code]
	if !ok {
		return
	}
	tx.exists = true
	tx.readVersion = group.version
	tx.game = group.game.Copy()
	tx.private = group.private.Copy()
	tx.players = copyPlayers(group.players)
}

func (tx *memoryTx) Game() (*types.Game, error) {
	tx.load()
	if !tx.exists {
		return nil, &ErrNotFound{}
	}
	return tx.game, nil
}

func (tx *memoryTx) Players() ([]*types.Player, error) {
	tx.load()
	if !tx.exists {
		return nil, &ErrNotFound{}
	}
	return tx.players, nil
}

func (tx *memoryTx) PrivateData() (*types.PrivateData, error) {
	tx.load()
	if !tx.exists {
		return nil, &ErrNotFound{}
	}
	return tx.private, nil
}

func (tx *memoryTx) SetGame(g *types.Game) {
	tx.setGame = g.Copy()
}

func (tx *memoryTx) SetPlayer(p *types.Player) {
	tx.setPlayers = append(tx.setPlayers, p.Copy())
}

func (tx *memoryTx) SetPrivateData(p *types.PrivateData) {
	tx.setPrivate = p.Copy()
}

func (s *MemoryStore) commit(tx *memoryTx) error {
	if tx.setGame == nil && tx.setPlayers == nil && tx.setPrivate == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.games[tx.code]
	if tx.loaded {
		if ok != tx.exists {
			return &ErrConflict{}
		}
		if ok && group.version != tx.readVersion {
			return &ErrConflict{}
		}
	}
	if !ok {
		group = &memoryGroup{
			game:    &types.Game{},
			players: make(map[string]*types.Player),
			private: &types.PrivateData{},
		}
		s.games[tx.code] = group
	}

	if tx.setGame != nil {
		group.game = tx.setGame.Copy()
	}
	for _, p := range tx.setPlayers {
		group.players[p.UID] = p.Copy()
	}
	if tx.setPrivate != nil {
		group.private = tx.setPrivate.Copy()
	}
	group.version++

	if tx.setGame != nil {
		s.notifyLocked(tx.code, group.game)
	}
	return nil
}

func (s *MemoryStore) GetGame(ctx context.Context, code string) (*types.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.games[code]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return group.game.Copy(), nil
}

func (s *MemoryStore) GetPlayers(ctx context.Context, code string) ([]*types.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.games[code]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return copyPlayers(group.players), nil
}

func (s *MemoryStore) GetPrivateData(ctx context.Context, code string) (*types.PrivateData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.games[code]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return group.private.Copy(), nil
}

// SetPresence updates the online flag in place without bumping the group
// version. Presence touches a disjoint field and must not conflict with
// phase transitions.
func (s *MemoryStore) SetPresence(ctx context.Context, code string, uid string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.games[code]
	if !ok {
		return &ErrNotFound{}
	}
	player, ok := group.players[uid]
	if !ok {
		return &ErrNotFound{}
	}
	player.IsOnline = online
	return nil
}

func (s *MemoryStore) WatchGame(ctx context.Context, code string) (<-chan *types.Game, error) {
	s.mu.Lock()
	ch := make(chan *types.Game, watchBufferSize)
	s.watchers[code] = append(s.watchers[code], ch)
	group, ok := s.games[code]
	if ok {
		ch <- group.game.Copy()
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		watchers := s.watchers[code]
		for i, w := range watchers {
			if w == ch {
				s.watchers[code] = append(watchers[:i], watchers[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

func (s *MemoryStore) notifyLocked(code string, g *types.Game) {
	for _, ch := range s.watchers[code] {
		select {
		case ch <- g.Copy():
		default:
			// slow watcher, drop the snapshot
		}
	}
}

func (s *MemoryStore) StaleGames(ctx context.Context, olderThan time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	for code, group := range s.games {
		if group.game.LastUpdated.Before(olderThan) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *MemoryStore) DeletePlayers(ctx context.Context, code string, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.games[code]
	if !ok {
		return 0, nil
	}
	uids := make([]string, 0, len(group.players))
	for uid := range group.players {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	if len(uids) > limit {
		uids = uids[:limit]
	}
	for _, uid := range uids {
		delete(group.players, uid)
	}
	group.version++
	return len(uids), nil
}

func (s *MemoryStore) DeletePrivateData(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.games[code]
	if !ok {
		return nil
	}
	group.private = &types.PrivateData{}
	group.version++
	return nil
}

func (s *MemoryStore) DeleteGame(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[code]; !ok {
		return nil
	}
	delete(s.games, code)
	for _, ch := range s.watchers[code] {
		close(ch)
	}
	delete(s.watchers, code)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyPlayers(players map[string]*types.Player) []*types.Player {
	copied := make([]*types.Player, 0, len(players))
	for _, p := range players {
		copied = append(copied, p.Copy())
	}
	sort.Slice(copied, func(i, j int) bool {
		if copied[i].OrderIndex != copied[j].OrderIndex {
			return copied[i].OrderIndex < copied[j].OrderIndex
		}
		return copied[i].UID < copied[j].UID
	})
	return copied
}
