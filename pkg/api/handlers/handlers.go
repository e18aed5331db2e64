package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/partyline/whispered/pkg/api/middleware"
	"github.com/partyline/whispered/pkg/game"
	"github.com/partyline/whispered/pkg/game/types"
	"github.com/partyline/whispered/pkg/log"
	"github.com/partyline/whispered/pkg/store"
)

type CreateGameRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ActionResponse is the applyAction result envelope: either the committed
// public snapshot or a typed rejection.
type ActionResponse struct {
	OK      bool            `json:"ok"`
	Reason  string          `json:"reason,omitempty"`
	Message string          `json:"message,omitempty"`
	Game    *types.Game     `json:"game,omitempty"`
	Players []*types.Player `json:"players,omitempty"`
}

func HandleCreateGame(executor *game.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUID, ok := middleware.ActorUID(r.Context())
		if !ok {
			log.Error("failed to get actor from context")
			http.Error(w, "Failed to get actor from context", http.StatusInternalServerError)
			return
		}

		req := CreateGameRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := executor.CreateGame(r.Context(), req.Name, actorUID, req.DisplayName)
		if err != nil {
			writeActionError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, &ActionResponse{
			OK:      true,
			Game:    result.Game,
			Players: result.Players,
		})
	}
}

func HandleAction(executor *game.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUID, ok := middleware.ActorUID(r.Context())
		if !ok {
			log.Error("failed to get actor from context")
			http.Error(w, "Failed to get actor from context", http.StatusInternalServerError)
			return
		}
		code := mux.Vars(r)["code"]

		envelope := types.ActionEnvelope{}
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		action, err := types.DecodeAction(envelope)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := executor.Apply(r.Context(), code, actorUID, action)
		if err != nil {
			writeActionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, &ActionResponse{
			OK:      true,
			Game:    result.Game,
			Players: result.Players,
		})
	}
}

// HandleGetPrivate is the privileged read path for the secret strings,
// filtered per actor and phase.
func HandleGetPrivate(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUID, ok := middleware.ActorUID(r.Context())
		if !ok {
			log.Error("failed to get actor from context")
			http.Error(w, "Failed to get actor from context", http.StatusInternalServerError)
			return
		}
		code := mux.Vars(r)["code"]

		g, err := s.GetGame(r.Context(), code)
		if err != nil {
			writeActionError(w, err)
			return
		}
		private, err := s.GetPrivateData(r.Context(), code)
		if err != nil {
			if !store.IsNotFound(err) {
				writeActionError(w, err)
				return
			}
			private = &types.PrivateData{}
		}

		writeJSON(w, http.StatusOK, game.ViewPrivate(g, private, actorUID))
	}
}

type PresenceRequest struct {
	Online bool `json:"online"`
}

func HandlePresence(executor *game.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorUID, ok := middleware.ActorUID(r.Context())
		if !ok {
			log.Error("failed to get actor from context")
			http.Error(w, "Failed to get actor from context", http.StatusInternalServerError)
			return
		}
		code := mux.Vars(r)["code"]

		req := PresenceRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := executor.SetPresence(r.Context(), code, actorUID, req.Online); err != nil {
			writeActionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeActionError(w http.ResponseWriter, err error) {
	if violation, ok := game.AsGuardViolation(err); ok {
		writeJSON(w, http.StatusConflict, &ActionResponse{
			OK:      false,
			Reason:  string(violation.Code),
			Message: violation.Message,
		})
		return
	}
	switch {
	case store.IsNotFound(err):
		http.Error(w, "Game not found", http.StatusNotFound)
	case store.IsConflict(err):
		writeJSON(w, http.StatusConflict, &ActionResponse{
			OK:      false,
			Reason:  "conflict",
			Message: "Lost a race to a concurrent action, please try again",
		})
	case store.IsUnavailable(err):
		http.Error(w, "Store unavailable, please try again", http.StatusServiceUnavailable)
	default:
		log.Error("failed to apply action: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
