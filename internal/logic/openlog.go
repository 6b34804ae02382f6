package logic

import "time"

// Session is one continuous interval with the valve open.
// ClosedAt is zero while the valve is still open.
type Session struct {
	OpenedAt time.Time
	ClosedAt time.Time
}

// Closed reports whether the session has ended.
func (s Session) Closed() bool {
	return !s.ClosedAt.IsZero()
}

// Duration returns the session length, measured up to now while it is open.
func (s Session) Duration(now time.Time) time.Duration {
	if s.Closed() {
		return s.ClosedAt.Sub(s.OpenedAt)
	}
	return now.Sub(s.OpenedAt)
}

// OpenLog records today's valve sessions in order. The controller clears
// it on day reset.
type OpenLog struct {
	sessions []Session
}

// Opened appends a new open session.
func (l *OpenLog) Opened(t time.Time) {
	l.sessions = append(l.sessions, Session{OpenedAt: t})
}

// Closed ends the most recent session if it is still open.
func (l *OpenLog) Closed(t time.Time) {
	n := len(l.sessions)
	if n == 0 || l.sessions[n-1].Closed() {
		return
	}
	l.sessions[n-1].ClosedAt = t
}

// Opens returns how many sessions were started.
func (l *OpenLog) Opens() int {
	return len(l.sessions)
}

// Closes returns how many sessions were ended.
func (l *OpenLog) Closes() int {
	n := len(l.sessions)
	if n > 0 && !l.sessions[n-1].Closed() {
		return n - 1
	}
	return n
}

// Last returns the most recent session.
func (l *OpenLog) Last() (Session, bool) {
	if len(l.sessions) == 0 {
		return Session{}, false
	}
	return l.sessions[len(l.sessions)-1], true
}

// Sessions returns a copy of all recorded sessions.
func (l *OpenLog) Sessions() []Session {
	out := make([]Session, len(l.sessions))
	copy(out, l.sessions)
	return out
}

// Clear drops all sessions.
func (l *OpenLog) Clear() {
	l.sessions = nil
}
