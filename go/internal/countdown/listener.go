package countdown

import "fmt"

// Listener receives one callback per countdown tick.
type Listener interface {
	OnCountDown(formatted string, hours, minutes, seconds int)
}

// LiveListener is a Listener that also wants to know when a live stream starts.
type LiveListener interface {
	Listener
	OnLiveStart()
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(formatted string, hours, minutes, seconds int)

func (f ListenerFunc) OnCountDown(formatted string, hours, minutes, seconds int) {
	f(formatted, hours, minutes, seconds)
}

// Remaining is the time left until a countdown target, split into clock fields.
type Remaining struct {
	Hours   int
	Minutes int
	Seconds int
}

// Decompose splits a number of seconds into hours, minutes and seconds using
// truncating division. The result is only meaningful for non-negative input.
func Decompose(remainingSeconds int64) Remaining {
	hours := remainingSeconds / 3600
	minutes := remainingSeconds/60 - hours*60
	seconds := remainingSeconds - minutes*60 - hours*3600
	return Remaining{Hours: int(hours), Minutes: int(minutes), Seconds: int(seconds)}
}

// IsZero reports whether every field is exactly zero.
func (r Remaining) IsZero() bool {
	return r.Hours == 0 && r.Minutes == 0 && r.Seconds == 0
}

// TotalSeconds folds the fields back into a second count.
func (r Remaining) TotalSeconds() int64 {
	return int64(r.Hours)*3600 + int64(r.Minutes)*60 + int64(r.Seconds)
}

func (r Remaining) String() string {
	return FormatClock(r.Hours, r.Minutes, r.Seconds)
}

// FormatClock renders HH:MM:SS with each field zero padded to two digits.
func FormatClock(hours, minutes, seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
