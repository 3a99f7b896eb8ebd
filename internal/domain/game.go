package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// GameMode affects scoring and ranking but not the task sequence.
type GameMode string

const (
	ModeClassic          GameMode = "classic"
	ModeZeroToOneHundred GameMode = "zero_to_one_hundred"
)

// SupportsQuestions reports whether the mode can score every question. ZeroToOneHundred
// ranks by numeric deviation and so only accepts range questions.
func (m GameMode) SupportsQuestions(questions []Question) error {
	switch m {
	case ModeClassic:
		return nil
	case ModeZeroToOneHundred:
		for _, q := range questions {
			if q.Type != QuestionRange {
				return fmt.Errorf("mode %s needs range questions, %s is %s: %w", m, q.ID, q.Type, ErrInvalidGameMode)
			}
		}
		return nil
	}
	return fmt.Errorf("mode %q: %w", m, ErrInvalidGameMode)
}

// GameStatus is the lifecycle of the game aggregate.
type GameStatus string

const (
	GameActive    GameStatus = "active"
	GameCompleted GameStatus = "completed"
	GameExpired   GameStatus = "expired"
)

// Game is the root aggregate. It is only mutated inside an exclusive repository update.
type Game struct {
	ID            string
	PIN           string
	Name          string
	QuizID        string
	Mode          GameMode
	Status        GameStatus
	Questions     []Question
	NextQuestion  int
	Participants  []Participant
	CurrentTask   Task
	PreviousTasks []Task
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Host returns the host participant, or nil.
func (g *Game) Host() *Host {
	for _, p := range g.Participants {
		if h, ok := p.(*Host); ok {
			return h
		}
	}
	return nil
}

// Players returns the player participants in join order.
func (g *Game) Players() []*Player {
	players := make([]*Player, 0, len(g.Participants))
	for _, p := range g.Participants {
		if player, ok := p.(*Player); ok {
			players = append(players, player)
		}
	}
	return players
}

// Participant looks a participant up by id.
func (g *Game) Participant(id string) (Participant, bool) {
	for _, p := range g.Participants {
		if p.ParticipantID() == id {
			return p, true
		}
	}
	return nil, false
}

// Player looks a player up by id.
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.Participant(id)
	if !ok {
		return nil, false
	}
	player, ok := p.(*Player)
	return player, ok
}

// RemoveParticipant drops a participant and reports whether it was present.
func (g *Game) RemoveParticipant(id string) bool {
	for i, p := range g.Participants {
		if p.ParticipantID() == id {
			g.Participants = append(g.Participants[:i], g.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// PreviousTask returns the most recently archived task, or nil.
func (g *Game) PreviousTask() Task {
	if len(g.PreviousTasks) == 0 {
		return nil
	}
	return g.PreviousTasks[len(g.PreviousTasks)-1]
}

// Advance archives the current task and installs next as the current task.
func (g *Game) Advance(next Task) {
	if g.CurrentTask != nil {
		g.PreviousTasks = append(g.PreviousTasks, g.CurrentTask)
	}
	g.CurrentTask = next
}

// Question returns the question at index.
func (g *Game) Question(index int) (Question, error) {
	if index < 0 || index >= len(g.Questions) {
		return Question{}, fmt.Errorf("question %d of %d: %w", index, len(g.Questions), ErrQuestionNotFound)
	}
	return g.Questions[index], nil
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() (*Game, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var out Game
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GameResult is the final record persisted when a game with players reaches the podium.
type GameResult struct {
	GameID    string         `json:"gameId"`
	QuizID    string         `json:"quizId"`
	Name      string         `json:"name"`
	Mode      GameMode       `json:"mode"`
	HostID    string         `json:"hostId"`
	Players   []PlayerResult `json:"players"`
	Questions int            `json:"questions"`
	CreatedAt time.Time      `json:"createdAt"`
	EndedAt   time.Time      `json:"endedAt"`
}

// PlayerResult is one line of a GameResult.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Rank     int    `json:"rank"`
	Score    int    `json:"score"`
	Streaks  int    `json:"streaks"`
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type gameJSON struct {
	ID            string     `json:"id"`
	PIN           string     `json:"pin"`
	Name          string     `json:"name"`
	QuizID        string     `json:"quizId"`
	Mode          GameMode   `json:"mode"`
	Status        GameStatus `json:"status"`
	Questions     []Question `json:"questions"`
	NextQuestion  int        `json:"nextQuestion"`
	Participants  []envelope `json:"participants"`
	CurrentTask   *envelope  `json:"currentTask,omitempty"`
	PreviousTasks []envelope `json:"previousTasks"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (g Game) MarshalJSON() ([]byte, error) {
	out := gameJSON{
		ID:           g.ID,
		PIN:          g.PIN,
		Name:         g.Name,
		QuizID:       g.QuizID,
		Mode:         g.Mode,
		Status:       g.Status,
		Questions:    g.Questions,
		NextQuestion: g.NextQuestion,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	for _, p := range g.Participants {
		env, err := wrap(string(p.ParticipantType()), p)
		if err != nil {
			return nil, err
		}
		out.Participants = append(out.Participants, env)
	}
	if g.CurrentTask != nil {
		env, err := wrap(string(g.CurrentTask.Type()), g.CurrentTask)
		if err != nil {
			return nil, err
		}
		out.CurrentTask = &env
	}
	for _, t := range g.PreviousTasks {
		env, err := wrap(string(t.Type()), t)
		if err != nil {
			return nil, err
		}
		out.PreviousTasks = append(out.PreviousTasks, env)
	}
	return json.Marshal(out)
}

func (g *Game) UnmarshalJSON(data []byte) error {
	var in gameJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*g = Game{
		ID:           in.ID,
		PIN:          in.PIN,
		Name:         in.Name,
		QuizID:       in.QuizID,
		Mode:         in.Mode,
		Status:       in.Status,
		Questions:    in.Questions,
		NextQuestion: in.NextQuestion,
		CreatedAt:    in.CreatedAt,
		UpdatedAt:    in.UpdatedAt,
	}
	for _, env := range in.Participants {
		p, err := decodeParticipant(env)
		if err != nil {
			return err
		}
		g.Participants = append(g.Participants, p)
	}
	if in.CurrentTask != nil {
		t, err := decodeTask(*in.CurrentTask)
		if err != nil {
			return err
		}
		g.CurrentTask = t
	}
	for _, env := range in.PreviousTasks {
		t, err := decodeTask(env)
		if err != nil {
			return err
		}
		g.PreviousTasks = append(g.PreviousTasks, t)
	}
	return nil
}

func wrap(typ string, v any) (envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return envelope{}, err
	}
	return envelope{Type: typ, Data: data}, nil
}

func decodeParticipant(env envelope) (Participant, error) {
	var p Participant
	switch ParticipantType(env.Type) {
	case ParticipantHost:
		p = &Host{}
	case ParticipantPlayer:
		p = &Player{}
	default:
		return nil, fmt.Errorf("unknown participant type %q", env.Type)
	}
	if err := json.Unmarshal(env.Data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeTask(env envelope) (Task, error) {
	var t Task
	switch TaskType(env.Type) {
	case TaskLobby:
		t = &LobbyTask{}
	case TaskQuestion:
		t = &QuestionTask{}
	case TaskQuestionResult:
		t = &QuestionResultTask{}
	case TaskLeaderboard:
		t = &LeaderboardTask{}
	case TaskPodium:
		t = &PodiumTask{}
	case TaskQuit:
		t = &QuitTask{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, env.Type)
	}
	if err := json.Unmarshal(env.Data, t); err != nil {
		return nil, err
	}
	return t, nil
}
