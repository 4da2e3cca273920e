package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"globetrotter/internal/domain"
)

const (
	optionCount = 4
	maxClues    = 2

	maxUsernameLen = 64
)

// Question outcomes reported to the Recorder.
const (
	OutcomeServed    = "served"
	OutcomeExhausted = "exhausted"
	OutcomeEmpty     = "empty"
)

// QuestionService builds quiz questions from the catalog, skipping destinations
// the user has already seen.
type QuestionService struct {
	catalog  CatalogRepository
	tracker  UsedDestinationTracker
	logger   *slog.Logger
	recorder Recorder

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionService(catalog CatalogRepository, tracker UsedDestinationTracker, opts ...Option) *QuestionService {
	o := newOptions(opts)
	return &QuestionService{
		catalog:  catalog,
		tracker:  tracker,
		logger:   o.logger,
		recorder: o.recorder,
		rnd:      o.rnd,
	}
}

// BuildQuestion picks an unseen destination for username and marks it as used.
// It returns ok=false with a nil error once every destination has been served.
func (s *QuestionService) BuildQuestion(ctx context.Context, username string) (domain.Question, bool, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return domain.Question{}, false, err
	}

	destinations, err := s.catalog.Destinations(ctx)
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("load catalog: %w", err)
	}
	if len(destinations) == 0 {
		s.recorder.QuestionServed(OutcomeEmpty)
		return domain.Question{}, false, domain.ErrNoDestinations
	}

	used, err := s.tracker.Used(ctx, username)
	if err != nil {
		s.logger.Warn("used destinations unavailable, serving without history",
			"op", "build_question", "user", username, "error", err)
		used = nil
	}

	available := make([]domain.Destination, 0, len(destinations))
	for _, d := range destinations {
		if _, seen := used[d.ID]; !seen {
			available = append(available, d)
		}
	}
	if len(available) == 0 {
		s.recorder.QuestionServed(OutcomeExhausted)
		return domain.Question{}, false, nil
	}

	s.mu.Lock()
	target := available[s.rnd.Intn(len(available))]
	s.mu.Unlock()

	if err := s.tracker.MarkUsed(ctx, username, target.ID); err != nil {
		s.logger.Warn("failed to mark destination as used",
			"op", "build_question", "user", username, "destination", target.ID, "error", err)
	}

	question := s.compose(target, destinations)
	s.recorder.QuestionServed(OutcomeServed)
	return question, true, nil
}

// compose builds the question payload for target. It never mutates destinations.
func (s *QuestionService) compose(target domain.Destination, destinations []domain.Destination) domain.Question {
	others := make([]domain.Destination, 0, len(destinations)-1)
	for _, d := range destinations {
		if d.ID != target.ID {
			others = append(others, d)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	decoys := Shuffled(s.rnd, others)
	if len(decoys) > optionCount-1 {
		decoys = decoys[:optionCount-1]
	}

	options := make([]domain.QuestionOption, 0, len(decoys)+1)
	options = append(options, domain.QuestionOption{ID: target.ID, Name: target.Name()})
	for _, d := range decoys {
		options = append(options, domain.QuestionOption{ID: d.ID, Name: d.Name()})
	}

	clueCount := 1 + s.rnd.Intn(maxClues)
	if clueCount > len(target.Clues) {
		clueCount = len(target.Clues)
	}
	clues := Shuffled(s.rnd, target.Clues)[:clueCount]

	funFacts := make([]string, len(target.FunFacts))
	copy(funFacts, target.FunFacts)

	return domain.Question{
		ID:       target.ID,
		Clues:    clues,
		Options:  Shuffled(s.rnd, options),
		FunFacts: funFacts,
		Location: target.Location(),
	}
}

// NormalizeUsername trims username and rejects blank or unprintable names.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", domain.ErrUsernameRequired
	}
	if len(username) > maxUsernameLen {
		return "", domain.ErrInvalidUsername
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return "", domain.ErrInvalidUsername
		}
	}
	return username, nil
}
