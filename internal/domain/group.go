package domain

import "time"

// Group is a named set of users sharing access to group-scoped resources.
//
// Members is an unordered set; duplicates carry no meaning.
type Group struct {
	ID        GroupID
	Name      string
	CreatedAt time.Time

	Members []UserID
}

// HasMember reports whether user is an element of the group's member set.
// Membership is the only authorization predicate: no roles, no nesting.
func (g Group) HasMember(user UserID) bool {
	for _, m := range g.Members {
		if m == user {
			return true
		}
	}
	return false
}
