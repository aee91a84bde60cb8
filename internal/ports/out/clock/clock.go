package clock

import "time"

// Clock tells the application what "now" is; active-session lookups depend on it.
type Clock interface {
	Now() time.Time
}
