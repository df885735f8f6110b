package service

import (
	"log"
	"sync/atomic"
	"time"
)

// Supervisor owns the single active lobby and replaces it after each game.
// Callers fetch Current() per operation instead of holding on to a session.
type Supervisor struct {
	current    atomic.Pointer[Session]
	deal       Dealer
	delay      time.Duration
	onDeadline func(*Session)
}

// NewSupervisor creates a supervisor and opens the first lobby.
// onDeadline runs on the timer goroutine when a lobby's admission delay expires.
func NewSupervisor(deal Dealer, delay time.Duration, onDeadline func(*Session)) *Supervisor {
	if deal == nil {
		deal = RandomDealer
	}
	s := &Supervisor{
		deal:       deal,
		delay:      delay,
		onDeadline: onDeadline,
	}
	s.current.Store(s.open())
	return s
}

// Current returns the active session
func (s *Supervisor) Current() *Session {
	return s.current.Load()
}

// Renew swaps the ended session for a fresh one. It is a no-op returning the
// active session when ended is no longer current, so renewing twice is harmless.
func (s *Supervisor) Renew(ended *Session) *Session {
	if cur := s.current.Load(); cur != ended {
		return cur
	}
	fresh := s.open()
	if !s.current.CompareAndSwap(ended, fresh) {
		// fresh is dropped; its timer fires later against an empty, unreachable lobby
		return s.current.Load()
	}
	log.Printf("Lobby %s replaced by %s", ended.ID(), fresh.ID())
	return fresh
}

func (s *Supervisor) open() *Session {
	sess := newSession(s.deal())
	time.AfterFunc(s.delay, func() {
		if s.onDeadline != nil {
			s.onDeadline(sess)
		}
	})
	return sess
}
