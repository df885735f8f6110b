package service

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"poker24/internal/model"

	"github.com/google/uuid"
)

// MaxPlayers is the lobby capacity; a full lobby starts immediately
const MaxPlayers = 4

const (
	dealCount = 4
	minCard   = 1
	maxCard   = 52
)

// Rejection reasons for submissions that never reach the evaluator
const (
	ReasonNotStarted = "The game has not started!"
	ReasonGameOver   = "The game is already over!"
	ReasonNotInGame  = "You are not in this game!"
)

// JoinResult is the outcome of a join attempt
type JoinResult int

const (
	JoinAccepted JoinResult = iota
	JoinAlreadyJoined
	JoinFull
	JoinAlreadyStarted
)

// Admitted reports whether the player is on the roster after the attempt
func (r JoinResult) Admitted() bool {
	return r == JoinAccepted || r == JoinAlreadyJoined
}

// Dealer picks the numbers for a new session
type Dealer func() []int

// RandomDealer deals 4 distinct numbers in [1, 52]
func RandomDealer() []int {
	numbers := rand.Perm(maxCard)[:dealCount]
	for i := range numbers {
		numbers[i] += minCard
	}
	return numbers
}

// Session is one lobby, from first join until the first correct answer.
// Every mutation happens under mu; callers get back a decided outcome
// and perform broadcasts and persistence after the lock is released.
type Session struct {
	id        string
	numbers   []int
	createdAt time.Time

	// announced is closed once the start broadcast has gone out
	announced    chan struct{}
	announceOnce sync.Once

	mu            sync.Mutex
	roster        []model.PlayerRecord
	started       bool
	ended         bool
	deadlineFired bool
	startedAt     time.Time
}

func newSession(numbers []int) *Session {
	return &Session{
		id:        uuid.New().String(),
		numbers:   slices.Clone(numbers),
		createdAt: time.Now(),
		announced: make(chan struct{}),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Numbers returns the dealt numbers. They are fixed at creation.
func (s *Session) Numbers() []int {
	return slices.Clone(s.numbers)
}

// shouldStart is the start condition, checked after every join and on deadline expiry
func shouldStart(size int, deadlineFired bool) bool {
	return size == MaxPlayers || (deadlineFired && size > 1)
}

func (s *Session) join(p model.PlayerRecord) (JoinResult, *model.GameStarted) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return JoinAlreadyStarted, nil
	}
	if s.indexLocked(p.Name) >= 0 {
		return JoinAlreadyJoined, nil
	}
	if len(s.roster) >= MaxPlayers {
		return JoinFull, nil
	}
	s.roster = append(s.roster, p)
	return JoinAccepted, s.tryStartLocked()
}

// leave removes name from the roster. It does not check started, so a player
// leaving mid-game disappears from the roster the start broadcast listed.
// An ended session is frozen.
func (s *Session) leave(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return false
	}
	i := s.indexLocked(name)
	if i < 0 {
		return false
	}
	s.roster = slices.Delete(s.roster, i, i+1)
	return true
}

// expireDeadline runs once from the admission timer. Firing after the
// session started is a no-op.
func (s *Session) expireDeadline() *model.GameStarted {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deadlineFired = true
	return s.tryStartLocked()
}

func (s *Session) tryStartLocked() *model.GameStarted {
	if s.started || !shouldStart(len(s.roster), s.deadlineFired) {
		return nil
	}
	s.started = true
	s.startedAt = time.Now()
	return &model.GameStarted{
		SessionID: s.id,
		Numbers:   slices.Clone(s.numbers),
		Players:   slices.Clone(s.roster),
		StartedAt: s.startedAt,
	}
}

// admitsAnswer returns a rejection reason, or "" when name may submit
func (s *Session) admitsAnswer(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.ended:
		return ReasonGameOver
	case !s.started:
		return ReasonNotStarted
	case s.indexLocked(name) < 0:
		return ReasonNotInGame
	}
	return ""
}

// finish ends the session with winner. Only the first caller gets a non-nil
// result; the ended flag is tested and set under the same lock.
func (s *Session) finish(winner, expression string, elapsed float64) *model.GameEnded {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended || !s.started || s.indexLocked(winner) < 0 {
		return nil
	}
	s.ended = true
	return &model.GameEnded{
		SessionID:      s.id,
		Numbers:        slices.Clone(s.numbers),
		Players:        slices.Clone(s.roster),
		Winner:         winner,
		Expression:     expression,
		ElapsedSeconds: elapsed,
		StartedAt:      s.startedAt,
		EndedAt:        time.Now(),
	}
}

func (s *Session) indexLocked(name string) int {
	return slices.IndexFunc(s.roster, func(p model.PlayerRecord) bool {
		return p.Name == name
	})
}

func (s *Session) markAnnounced() {
	s.announceOnce.Do(func() { close(s.announced) })
}

// waitAnnounced blocks until the start broadcast went out or ctx is done
func (s *Session) waitAnnounced(ctx context.Context) error {
	select {
	case <-s.announced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() model.LobbySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.LobbySnapshot{
		SessionID:     s.id,
		Players:       slices.Clone(s.roster),
		Started:       s.started,
		Ended:         s.ended,
		DeadlineFired: s.deadlineFired,
		CreatedAt:     s.createdAt,
	}
	if snap.Players == nil {
		snap.Players = []model.PlayerRecord{}
	}
	if s.started {
		snap.Numbers = slices.Clone(s.numbers)
	}
	return snap
}
