package repository

import "time"

// Clock abstracts time retrieval so expiry and timestamps are deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
