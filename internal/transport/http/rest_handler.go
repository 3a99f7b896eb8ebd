package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

type RESTHandler struct {
	service *app.GameService
	log     logrus.FieldLogger
}

func NewRESTHandler(service *app.GameService, log logrus.FieldLogger) *RESTHandler {
	return &RESTHandler{service: service, log: log}
}

type createGameRequest struct {
	QuizID string          `json:"quizId"`
	HostID string          `json:"hostId"`
	Mode   domain.GameMode `json:"mode"`
}

type createGameResponse struct {
	GameID string `json:"gameId"`
	PIN    string `json:"pin"`
	HostID string `json:"hostId"`
}

type joinGameRequest struct {
	PIN      string `json:"pin"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

type joinGameResponse struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

func (h *RESTHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		http.Error(w, "quizId is required", http.StatusBadRequest)
		return
	}
	game, err := h.service.CreateGame(r.Context(), req.QuizID, req.HostID, req.Mode)
	if err != nil {
		h.log.WithError(err).WithField("quiz_id", req.QuizID).Warn("create game failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{GameID: game.ID, PIN: game.PIN, HostID: game.Host().ID})
}

func (h *RESTHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PIN == "" {
		http.Error(w, "pin is required", http.StatusBadRequest)
		return
	}
	game, player, err := h.service.JoinGame(r.Context(), req.PIN, req.PlayerID, req.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joinGameResponse{GameID: game.ID, PlayerID: player.ID, Nickname: player.Nickname})
}

// NewRouter mounts the REST, websocket, health and metrics endpoints.
func NewRouter(service *app.GameService, hub *Hub, metricsHandler http.Handler, log logrus.FieldLogger) http.Handler {
	rest := NewRESTHandler(service, log)
	ws := NewWSHandler(service, hub, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", rest.CreateGame)
	mux.HandleFunc("POST /games/join", rest.JoinGame)
	mux.HandleFunc("/ws", ws.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidNickname),
		errors.Is(err, domain.ErrInvalidGameMode),
		errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNicknameTaken),
		errors.Is(err, domain.ErrPINInUse),
		errors.Is(err, domain.ErrGameNotActive),
		errors.Is(err, domain.ErrIllegalTaskType),
		errors.Is(err, domain.ErrIllegalTaskStatus):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
