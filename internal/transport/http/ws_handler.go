package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	hub      *Hub
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, hub *Hub, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Value domain.AnswerValue `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var errUnsupportedMessage = errors.New("unsupported message type")

// ServeWS upgrades a participant's connection, sends the current event and then relays
// every event published for that participant.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	participantID := r.URL.Query().Get("participantId")
	if gameID == "" || participantID == "" {
		http.Error(w, "missing gameId or participantId", http.StatusBadRequest)
		return
	}

	current, err := h.service.CurrentEvent(r.Context(), gameID, participantID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.WithFields(logrus.Fields{"game_id": gameID, "participant_id": participantID})
	c := newClient()
	h.hub.register(gameID, participantID, c)
	defer h.hub.unregister(gameID, participantID, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-c.send:
				if err := conn.WriteJSON(msg); err != nil {
					log.WithError(err).Debug("ws write error")
					return
				}
			case <-c.done:
				return
			}
		}
	}()

	c.enqueue(outboundMessage[any]{Type: string(current.EventType()), Payload: current})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		leave, err := h.handle(r, gameID, participantID, inbound)
		if err != nil {
			c.enqueue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
		if leave && err == nil {
			break
		}
	}

	close(c.done)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, gameID, participantID string, inbound inboundMessage) (bool, error) {
	ctx := r.Context()
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return false, domain.ErrInvalidAnswer
		}
		return false, h.service.SubmitAnswer(ctx, gameID, participantID, payload.Value)
	case "complete_task":
		_, err := h.service.CompleteTask(ctx, gameID, participantID)
		return false, err
	case "add_correct_answer", "delete_correct_answer":
		var answer domain.CorrectAnswer
		if err := json.Unmarshal(inbound.Payload, &answer); err != nil {
			return false, domain.ErrInvalidAnswer
		}
		var err error
		if inbound.Type == "add_correct_answer" {
			_, err = h.service.AddCorrectAnswer(ctx, gameID, participantID, answer)
		} else {
			_, err = h.service.DeleteCorrectAnswer(ctx, gameID, participantID, answer)
		}
		return false, err
	case "quit":
		_, err := h.service.QuitGame(ctx, gameID, participantID)
		return false, err
	case "leave":
		return true, h.service.LeaveGame(ctx, gameID, participantID)
	}
	return false, errUnsupportedMessage
}
