package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/messages"
	"github.com/partyline/whispered/pkg/metrics"
	"github.com/partyline/whispered/pkg/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWatch upgrades to a WebSocket and pushes a compressed public
// snapshot frame on every committed transition until the game ends or
// the client disconnects.
func HandleWatch(s store.Store, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		clientID := uuid.New().String()
		log.Debug("Watcher %s connected to game %s from %s", clientID, code, conn.RemoteAddr().String())

		m.IncWatchers()
		defer m.DecWatchers()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// drain reads to detect the client going away
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		snapshots, err := s.WatchGame(ctx, code)
		if err != nil {
			log.Error("Failed to watch game %s: %v", code, err)
			conn.Close()
			return
		}
		defer conn.Close()

		for g := range snapshots {
			players, err := s.GetPlayers(ctx, code)
			if err != nil && !store.IsNotFound(err) {
				log.Error("Failed to load players for game %s: %v", code, err)
				continue
			}

			frame, err := messages.NewGameSnapshotFrame(&messages.GameSnapshot{
				Game:    g,
				Players: players,
			})
			if err != nil {
				log.Error("Failed to build snapshot frame for game %s: %v", code, err)
				continue
			}
			if err := writeFrame(conn, frame); err != nil {
				log.Debug("Watcher %s disconnected from game %s: %v", clientID, code, err)
				return
			}
		}

		// the watch stream closed, the game is gone
		if err := writeFrame(conn, messages.NewGameEndedFrame()); err != nil {
			log.Debug("Watcher %s disconnected from game %s: %v", clientID, code, err)
		}
	}
}

func writeFrame(conn *websocket.Conn, frame *messages.Frame) error {
	b, err := messages.SerializeFrame(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, b)
}
