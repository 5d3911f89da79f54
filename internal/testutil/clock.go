package testutil

import "time"

// ReferenceTime is the "current timestamp" used by deterministic tests.
var ReferenceTime = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
