package modem

import "time"

//go:generate go tool mockgen -source=clock.go -destination=mock_clock.go -package=modem

// Clock is the monotonic time source every read deadline is computed from.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns the wall clock reading, which carries the monotonic reading
// that time.Time comparisons use.
func (systemClock) Now() time.Time {
	return time.Now()
}
