package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/partyline/whispered/pkg/game/types"
	"github.com/partyline/whispered/pkg/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the hosted Store implementation. Layout:
//
//	games/{code}              public game document
//	games/{code}/players/{uid} one document per participant
//	games/{code}/private/data  secret question/dare strings
type FirestoreStore struct {
	app    *firebase.App
	client *firestore.Client
}

// NewFirestoreStore creates a FirestoreStore for the given project.
// The caller is responsible for calling Close() on the store.
func NewFirestoreStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	cfg := &firebase.Config{
		ProjectID: projectID,
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %v", err)
	}

	return &FirestoreStore{
		app:    app,
		client: client,
	}, nil
}

func (s *FirestoreStore) gameRef(code string) *firestore.DocumentRef {
	return s.client.Collection("games").Doc(code)
}

func (s *FirestoreStore) playersRef(code string) *firestore.CollectionRef {
	return s.gameRef(code).Collection("players")
}

func (s *FirestoreStore) privateRef(code string) *firestore.DocumentRef {
	return s.gameRef(code).Collection("private").Doc("data")
}

type firestoreTx struct {
	store *FirestoreStore
	t     *firestore.Transaction
	code  string

	// writes are buffered so that all transaction reads happen first,
	// as Firestore requires
	setGame    *types.Game
	setPlayers []*types.Player
	setPrivate *types.PrivateData
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, code string, fn func(ctx context.Context, tx Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		tx := &firestoreTx{store: s, t: t, code: code}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.flush()
	})
	return translateError(err)
}

func (tx *firestoreTx) Game() (*types.Game, error) {
	doc, err := tx.t.Get(tx.store.gameRef(tx.code))
	if err != nil {
		return nil, translateError(err)
	}
	g := &types.Game{}
	if err := doc.DataTo(g); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %v", tx.code, err)
	}
	g.Code = doc.Ref.ID
	return g, nil
}

func (tx *firestoreTx) Players() ([]*types.Player, error) {
	iter := tx.t.Documents(tx.store.playersRef(tx.code))
	defer iter.Stop()
	return collectPlayers(iter)
}

func (tx *firestoreTx) PrivateData() (*types.PrivateData, error) {
	doc, err := tx.t.Get(tx.store.privateRef(tx.code))
	if err != nil {
		return nil, translateError(err)
	}
	p := &types.PrivateData{}
	if err := doc.DataTo(p); err != nil {
		return nil, fmt.Errorf("failed to decode private data for game %s: %v", tx.code, err)
	}
	return p, nil
}

func (tx *firestoreTx) SetGame(g *types.Game) {
	tx.setGame = g
}

func (tx *firestoreTx) SetPlayer(p *types.Player) {
	tx.setPlayers = append(tx.setPlayers, p)
}

func (tx *firestoreTx) SetPrivateData(p *types.PrivateData) {
	tx.setPrivate = p
}

func (tx *firestoreTx) flush() error {
	if tx.setGame != nil {
		if err := tx.t.Set(tx.store.gameRef(tx.code), tx.setGame); err != nil {
			return err
		}
	}
	for _, p := range tx.setPlayers {
		if err := tx.t.Set(tx.store.playersRef(tx.code).Doc(p.UID), p); err != nil {
			return err
		}
	}
	if tx.setPrivate != nil {
		if err := tx.t.Set(tx.store.privateRef(tx.code), tx.setPrivate); err != nil {
			return err
		}
	}
	return nil
}

func (s *FirestoreStore) GetGame(ctx context.Context, code string) (*types.Game, error) {
	doc, err := s.gameRef(code).Get(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	g := &types.Game{}
	if err := doc.DataTo(g); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %v", code, err)
	}
	g.Code = doc.Ref.ID
	return g, nil
}

func (s *FirestoreStore) GetPlayers(ctx context.Context, code string) ([]*types.Player, error) {
	iter := s.playersRef(code).Documents(ctx)
	defer iter.Stop()
	return collectPlayers(iter)
}

func (s *FirestoreStore) GetPrivateData(ctx context.Context, code string) (*types.PrivateData, error) {
	doc, err := s.privateRef(code).Get(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	p := &types.PrivateData{}
	if err := doc.DataTo(p); err != nil {
		return nil, fmt.Errorf("failed to decode private data for game %s: %v", code, err)
	}
	return p, nil
}

func (s *FirestoreStore) SetPresence(ctx context.Context, code string, uid string, online bool) error {
	_, err := s.playersRef(code).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "isOnline", Value: online},
	})
	return translateError(err)
}

func (s *FirestoreStore) WatchGame(ctx context.Context, code string) (<-chan *types.Game, error) {
	snapshots := s.gameRef(code).Snapshots(ctx)
	ch := make(chan *types.Game, watchBufferSize)

	go func() {
		defer close(ch)
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Error("Failed to read snapshot for game %s: %v", code, err)
				}
				return
			}
			if !snap.Exists() {
				// game was deleted, end the watch
				return
			}
			g := &types.Game{}
			if err := snap.DataTo(g); err != nil {
				log.Error("Failed to decode snapshot for game %s: %v", code, err)
				continue
			}
			g.Code = snap.Ref.ID
			select {
			case ch <- g:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (s *FirestoreStore) StaleGames(ctx context.Context, olderThan time.Time) ([]string, error) {
	iter := s.client.Collection("games").Where("lastUpdated", "<", olderThan).Documents(ctx)
	defer iter.Stop()

	var codes []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateError(err)
		}
		codes = append(codes, doc.Ref.ID)
	}
	return codes, nil
}

func (s *FirestoreStore) DeletePlayers(ctx context.Context, code string, limit int) (int, error) {
	iter := s.playersRef(code).OrderBy(firestore.DocumentID, firestore.Asc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	batch := s.client.Batch()
	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, translateError(err)
		}
		batch.Delete(doc.Ref)
		deleted++
	}
	if deleted == 0 {
		return 0, nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, translateError(err)
	}
	return deleted, nil
}

func (s *FirestoreStore) DeletePrivateData(ctx context.Context, code string) error {
	_, err := s.privateRef(code).Delete(ctx)
	return translateError(err)
}

func (s *FirestoreStore) DeleteGame(ctx context.Context, code string) error {
	_, err := s.gameRef(code).Delete(ctx)
	return translateError(err)
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func collectPlayers(iter *firestore.DocumentIterator) ([]*types.Player, error) {
	var players []*types.Player
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateError(err)
		}
		p := &types.Player{}
		if err := doc.DataTo(p); err != nil {
			return nil, fmt.Errorf("failed to decode player %s: %v", doc.Ref.ID, err)
		}
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].OrderIndex != players[j].OrderIndex {
			return players[i].OrderIndex < players[j].OrderIndex
		}
		return players[i].UID < players[j].UID
	})
	return players, nil
}

// translateError maps Firestore status codes onto the store error
// taxonomy. Errors that are not status errors pass through unchanged so
// rejections from the state machine survive the transaction boundary.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return &ErrNotFound{}
	case codes.Aborted, codes.FailedPrecondition:
		return &ErrConflict{}
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return &ErrUnavailable{Cause: err}
	}
	return err
}
