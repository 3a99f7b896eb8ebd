package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/infra/memory"
	"quiz-game-service/internal/logging"
	"quiz-game-service/internal/metrics"
	"quiz-game-service/internal/task"
)

type testServer struct {
	*httptest.Server
	games *memory.GameRepository
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Capitals",
		Questions: []domain.Question{{
			ID:       "q1",
			Type:     domain.QuestionMultiChoice,
			Text:     "Capital of France?",
			Duration: 30,
			Points:   1000,
			Options:  []domain.Option{{Text: "Paris", Correct: true}, {Text: "Lyon"}},
		}},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logging.Discard()
	games := memory.NewGameRepository()
	broadcaster := memory.NewBroadcaster(256)
	m := metrics.New()
	service := app.NewGameService(app.Dependencies{
		Games:       games,
		Answers:     memory.NewAnswerBuffer(),
		Results:     memory.NewResultStore(),
		Quizzes:     memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": sampleQuiz()}), time.Minute),
		Broadcaster: broadcaster,
		Metrics:     m,
		Log:         log,
	}, app.Options{Timing: task.Timing{
		LobbyDelay:  10 * time.Millisecond,
		AverageWPM:  1_000_000,
		CharReading: time.Millisecond,
		ReadingCap:  20 * time.Millisecond,
	}})
	t.Cleanup(service.Scheduler().Stop)

	messages, stop, err := broadcaster.Subscribe(ctx)
	require.NoError(t, err)
	t.Cleanup(stop)
	hub := NewHub(log)
	go hub.Run(ctx, messages)

	server := httptest.NewServer(NewRouter(service, hub, m.Handler(), log))
	t.Cleanup(server.Close)
	return &testServer{Server: server, games: games}
}

func (s *testServer) postJSON(t *testing.T, path string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) dial(t *testing.T, gameID, participantID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?gameId=" + gameID + "&participantId=" + participantID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) received {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg received
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", typ)
		if msg.Type == typ {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func TestWebSocketGameFlow(t *testing.T) {
	s := newTestServer(t)

	var created createGameResponse
	status := s.postJSON(t, "/games", createGameRequest{QuizID: "quiz-1", HostID: "host"}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "host", created.HostID)
	assert.Len(t, created.PIN, 6)

	host := s.dial(t, created.GameID, "host")
	readUntil(t, host, "game_lobby_host")

	var joined joinGameResponse
	status = s.postJSON(t, "/games/join", joinGameRequest{PIN: created.PIN, PlayerID: "p1", Nickname: "alice"}, &joined)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "p1", joined.PlayerID)

	player := s.dial(t, created.GameID, "p1")
	lobby := readUntil(t, player, "game_lobby_player")
	assert.JSONEq(t, `{"nickname":"alice"}`, string(lobby.Payload))

	send(t, player, "complete_task", nil)
	failure := readUntil(t, player, "error")
	assert.Contains(t, string(failure.Payload), domain.ErrNotHost.Error())

	send(t, player, "dance", nil)
	failure = readUntil(t, player, "error")
	assert.Contains(t, string(failure.Payload), errUnsupportedMessage.Error())

	require.Eventually(t, func() bool {
		g, err := s.games.Load(context.Background(), created.GameID)
		return err == nil && domain.Is(g.CurrentTask, domain.TaskLobby, domain.TaskActive)
	}, 2*time.Second, 5*time.Millisecond)

	send(t, host, "complete_task", nil)
	readUntil(t, player, "game_begin_player")
	readUntil(t, player, "question_player")

	send(t, player, "answer", answerPayload{Value: domain.AnswerValue{Option: intPtr(0)}})
	readUntil(t, host, "question_result_host")
	result := readUntil(t, player, "question_result_player")
	assert.Contains(t, string(result.Payload), `"correct":true`)
}

func TestRESTErrors(t *testing.T) {
	s := newTestServer(t)

	var failure errorPayload
	status := s.postJSON(t, "/games", createGameRequest{QuizID: "missing"}, &failure)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, failure.Message, domain.ErrQuizNotFound.Error())

	status = s.postJSON(t, "/games", createGameRequest{QuizID: "quiz-1", Mode: domain.GameMode("bogus")}, &failure)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, failure.Message, domain.ErrInvalidGameMode.Error())

	status = s.postJSON(t, "/games/join", joinGameRequest{PIN: "000000", Nickname: "bob"}, &failure)
	assert.Equal(t, http.StatusNotFound, status)

	var created createGameResponse
	require.Equal(t, http.StatusCreated, s.postJSON(t, "/games", createGameRequest{QuizID: "quiz-1"}, &created))
	assert.NotEmpty(t, created.HostID)

	status = s.postJSON(t, "/games/join", joinGameRequest{PIN: created.PIN, Nickname: "   "}, &failure)
	assert.Equal(t, http.StatusBadRequest, status)

	resp, err := http.Get(s.URL + "/ws?gameId=" + created.GameID + "&participantId=stranger")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(s.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func intPtr(v int) *int { return &v }
