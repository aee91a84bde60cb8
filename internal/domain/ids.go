package domain

// SubjectID is the authenticated subject extracted from JWT claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the IdP.
type SubjectID string

// UserID is an internal identifier for a user record.
type UserID string

// GroupID is an internal identifier for an eating group.
type GroupID string

// MensaID is an internal identifier for a mensa (dining facility).
type MensaID string

// TableID is an internal identifier for a table within a mensa.
type TableID string

// SessionID is an internal identifier for a group's eating session.
type SessionID string
