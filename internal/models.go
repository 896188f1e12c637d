package internal

import "time"

type Player struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	PassHash string `json:"-"`
	Role     string `json:"role"`
}

type Character struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	RoleID  int    `json:"role_id"`
	ClassID int    `json:"class_id"`
	Ilvl    int    `json:"ilvl"`
	Rio     int    `json:"rio"`
}

type Team struct {
	ID           int     `json:"id"`
	Name         *string `json:"name"`
	CaptainID    int     `json:"captain_id"`
	RegisteredID int     `json:"registered_id"`
}

type Tournament struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	CostToRegistry int       `json:"cost_to_registry"`
	Description    string    `json:"description"`
}

type Registered struct {
	ID               int       `json:"id"`
	TournamentID     int       `json:"tournament_id"`
	RegistrationDate time.Time `json:"registration_date"`
}

type Donjon struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Lvl  int    `json:"lvl"`
}

type DonjonDone struct {
	PartyID  int `json:"party_id"`
	DonjonID int `json:"donjon_id"`
	Timer    int `json:"timer"`
}

// DonjonCompleted is a dungeon joined with a team's recorded clear time.
type DonjonCompleted struct {
	Donjon
	CompletionTime int `json:"completion_time"`
}
