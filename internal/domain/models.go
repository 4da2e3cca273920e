package domain

import "time"

// Destination is a catalog entry that questions are built from.
type Destination struct {
	ID       string   `json:"id" yaml:"id"`
	City     string   `json:"city" yaml:"city"`
	Country  string   `json:"country" yaml:"country"`
	Clues    []string `json:"clues" yaml:"clues"`
	FunFacts []string `json:"funFacts" yaml:"funFacts"`
}

// Name is the label shown on an answer option.
func (d Destination) Name() string {
	return d.City
}

// Location is the "City, Country" label revealed with the answer.
func (d Destination) Location() string {
	if d.Country == "" {
		return d.City
	}
	return d.City + ", " + d.Country
}

// QuestionOption is one selectable answer.
type QuestionOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Question is built per request and never stored.
type Question struct {
	ID       string           `json:"id"`
	Clues    []string         `json:"clues"`
	Options  []QuestionOption `json:"options"`
	FunFacts []string         `json:"funFacts"`
	Location string           `json:"location"`
}

// Score holds the counters of the game in progress.
type Score struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// User is a player and their lifetime counters.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Score       Score     `json:"score"`
	HighScore   int       `json:"highScore"`
	GamesPlayed int       `json:"gamesPlayed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LeaderboardEntry is the best score a user has reached.
type LeaderboardEntry struct {
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	AchievedAt time.Time `json:"achievedAt"`
}

// FinalScore is the outcome of completing a game.
type FinalScore struct {
	UserID             string `json:"userId"`
	Username           string `json:"username"`
	Score              int    `json:"score"`
	LeaderboardUpdated bool   `json:"leaderboardUpdated"`
}

// AdminStats aggregates player activity for the admin dashboard.
type AdminStats struct {
	TotalUsers       int                `json:"totalUsers"`
	TotalGamesPlayed int                `json:"totalGamesPlayed"`
	AverageScore     float64            `json:"averageScore"`
	TopPlayers       []LeaderboardEntry `json:"topPlayers"`
}

// Admin is an operator account.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
