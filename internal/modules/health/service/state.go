package service

import (
	"sync/atomic"
	"time"
)

// State is the shared health snapshot: the poll loop reports into it, the
// HTTP endpoints read from it.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastPollUnix atomic.Int64 // unix seconds of the last completed poll
	cursor       atomic.Int64 // last processed message id
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) TouchPoll(t time.Time) { s.lastPollUnix.Store(t.Unix()) }
func (s *State) LastPoll() time.Time {
	u := s.lastPollUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) SetCursor(id int64) { s.cursor.Store(id) }
func (s *State) Cursor() int64      { return s.cursor.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
