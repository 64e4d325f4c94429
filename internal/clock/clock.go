package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc, truncated to microseconds so that
// values survive a JSON round trip unchanged.
func Now() time.Time { return NowFunc().UTC().Truncate(time.Microsecond) }
