package domain

// User is the domain representation of a resolved identity.
// Two users are the same user iff their IDs are equal.
type User struct {
	ID      UserID
	Subject SubjectID

	DisplayName string
	Email       string
}
