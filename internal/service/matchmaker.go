package service

import (
	"context"
	"log"
	"time"

	"poker24/internal/model"
	"poker24/internal/protocol"
)

// GameRecorder applies a finished game to the persistent rankings
type GameRecorder interface {
	RecordGame(ctx context.Context, ev *model.GameEnded) error
}

// GameArchive stores finished games
type GameArchive interface {
	Create(ctx context.Context, game *model.GameRecord) error
}

// MatchmakerConfig tunes lobby behaviour
type MatchmakerConfig struct {
	AdmissionDelay time.Duration
	Dealer         Dealer        // RandomDealer when nil
	PersistTimeout time.Duration // Budget for end-of-game persistence
}

// Matchmaker runs the rotating lobby: admission, start, first-correct-answer-wins
// and renewal. All operations target the supervisor's current session.
type Matchmaker struct {
	lobby          *Supervisor
	evaluator      *EvaluatorService
	recorder       GameRecorder
	archive        GameArchive
	broadcaster    Broadcaster
	persistTimeout time.Duration
}

// NewMatchmaker creates a matchmaker and opens the first lobby
func NewMatchmaker(cfg MatchmakerConfig, evaluator *EvaluatorService, recorder GameRecorder, broadcaster Broadcaster) *Matchmaker {
	m := &Matchmaker{
		evaluator:      evaluator,
		recorder:       recorder,
		broadcaster:    broadcaster,
		persistTimeout: cfg.PersistTimeout,
	}
	if m.persistTimeout <= 0 {
		m.persistTimeout = 10 * time.Second
	}
	m.lobby = NewSupervisor(cfg.Dealer, cfg.AdmissionDelay, m.onDeadline)
	return m
}

// SetArchive sets where finished games are stored
func (m *Matchmaker) SetArchive(a GameArchive) {
	m.archive = a
}

// Lobby returns the session supervisor
func (m *Matchmaker) Lobby() *Supervisor {
	return m.lobby
}

// Join admits a player to the current lobby and starts the game when the lobby fills
func (m *Matchmaker) Join(ctx context.Context, p model.PlayerRecord) JoinResult {
	sess := m.lobby.Current()
	result, started := sess.join(p)

	switch result {
	case JoinAccepted:
		log.Printf("Player %s joined lobby %s", p.Name, sess.ID())
	case JoinAlreadyJoined:
		log.Printf("Player %s is already in lobby %s", p.Name, sess.ID())
	default:
		log.Printf("Player %s turned away from lobby %s", p.Name, sess.ID())
	}

	if started != nil {
		m.announceStart(ctx, sess, started)
	}
	return result
}

// Leave removes a player from the current lobby. It never starts a game.
func (m *Matchmaker) Leave(name string) bool {
	sess := m.lobby.Current()
	removed := sess.leave(name)
	if removed {
		log.Printf("Player %s left lobby %s", name, sess.ID())
	}
	return removed
}

// SubmitAnswer checks an answer against the current game. The first correct
// answer ends the game; later ones, even if correct, change nothing.
func (m *Matchmaker) SubmitAnswer(ctx context.Context, name, expression string, elapsed float64) Verdict {
	sess := m.lobby.Current()
	if reason := sess.admitsAnswer(name); reason != "" {
		return Verdict{Reason: reason}
	}

	verdict := m.evaluator.Check(expression, sess.Numbers())
	if !verdict.Correct {
		log.Printf("Player %s submitted %q in lobby %s: %s", name, expression, sess.ID(), verdict.Reason)
		return verdict
	}

	if ended := sess.finish(name, expression, elapsed); ended != nil {
		m.conclude(ctx, sess, ended)
	}
	return verdict
}

func (m *Matchmaker) onDeadline(sess *Session) {
	if started := sess.expireDeadline(); started != nil {
		m.announceStart(context.Background(), sess, started)
	}
}

// announceStart outlives the joiner that filled the lobby, bounded by the persist timeout
func (m *Matchmaker) announceStart(ctx context.Context, sess *Session, ev *model.GameStarted) {
	defer sess.markAnnounced()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.persistTimeout)
	defer cancel()

	log.Printf("Starting game %s with %d players", ev.SessionID, len(ev.Players))
	if err := m.broadcaster.Broadcast(ctx, protocol.FormatStartGame(ev)); err != nil {
		log.Printf("Failed to broadcast start of game %s: %v", ev.SessionID, err)
	}
}

// conclude runs once per session, after the ended flag was taken
func (m *Matchmaker) conclude(ctx context.Context, sess *Session, ev *model.GameEnded) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.persistTimeout)
	defer cancel()

	log.Printf("Game %s won by %s in %.2fs", ev.SessionID, ev.Winner, ev.ElapsedSeconds)

	if err := sess.waitAnnounced(ctx); err != nil {
		log.Printf("Start of game %s was never announced: %v", ev.SessionID, err)
	}
	if err := m.recorder.RecordGame(ctx, ev); err != nil {
		log.Printf("Failed to record game %s: %v", ev.SessionID, err)
	}
	if m.archive != nil {
		if err := m.archive.Create(ctx, model.NewGameRecord(ev)); err != nil {
			log.Printf("Failed to archive game %s: %v", ev.SessionID, err)
		}
	}

	// Renew before broadcasting so clients reacting to ENDGAME land in the fresh lobby
	m.lobby.Renew(sess)

	if err := m.broadcaster.Broadcast(ctx, protocol.FormatEndGame(ev)); err != nil {
		log.Printf("Failed to broadcast end of game %s: %v", ev.SessionID, err)
	}
}
