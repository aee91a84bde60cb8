package apperr

// Codes shared by the use cases and surfaced in error bodies.
const (
	CodeGroupNotFound     = "GROUP_NOT_FOUND"
	CodeNotGroupMember    = "NOT_GROUP_MEMBER"
	CodeMensaNotFound     = "MENSA_NOT_FOUND"
	CodeNoActiveSession   = "NO_ACTIVE_SESSION"
	CodeLayoutUnavailable = "LAYOUT_UNAVAILABLE"
)
