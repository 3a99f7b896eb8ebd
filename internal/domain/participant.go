package domain

import "time"

// ParticipantType discriminates the participant union.
type ParticipantType string

const (
	ParticipantHost   ParticipantType = "host"
	ParticipantPlayer ParticipantType = "player"
)

// Participant is either a *Host or a *Player.
type Participant interface {
	ParticipantID() string
	ParticipantType() ParticipantType
	participant()
}

// Host runs the game and carries no progress fields.
type Host struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Host) ParticipantID() string            { return h.ID }
func (h *Host) ParticipantType() ParticipantType { return ParticipantHost }
func (h *Host) participant()                     {}

// Player answers questions. Rank, TotalScore and CurrentStreak change only when a
// question result completes.
type Player struct {
	ID            string    `json:"id"`
	Nickname      string    `json:"nickname"`
	Rank          int       `json:"rank"`
	TotalScore    int       `json:"totalScore"`
	CurrentStreak int       `json:"currentStreak"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p *Player) ParticipantID() string            { return p.ID }
func (p *Player) ParticipantType() ParticipantType { return ParticipantPlayer }
func (p *Player) participant()                     {}
