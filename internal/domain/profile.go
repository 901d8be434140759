package domain

import "time"

// Profile is a treatment profile. Mode changes are attributed to the active
// one; at most one profile is active at a time.
type Profile struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}
