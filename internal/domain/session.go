package domain

import "time"

// Session is an eating session a group holds at a mensa table.
type Session struct {
	ID      SessionID
	GroupID GroupID
	MensaID MensaID
	TableID *TableID

	Start time.Time
	End   *time.Time // nil while the session is open-ended
}

// ActiveAt reports whether the session is running at t.
func (s Session) ActiveAt(t time.Time) bool {
	if t.Before(s.Start) {
		return false
	}
	return s.End == nil || t.Before(*s.End)
}
