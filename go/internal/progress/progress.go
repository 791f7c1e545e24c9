package progress

import (
	"errors"
	"fmt"
	"time"
)

const (
	// FullyWatched is reported when playback reached the end of the item.
	FullyWatched = "fully watched"

	dateLayout = "01/02"
)

// ErrZeroDuration is returned by WatchProgress when the item has no duration
// and has not been fully watched.
var ErrZeroDuration = errors.New("duration must be greater than zero")

// FormatWatchProgress formats how far into an item playback got. Equal values
// report FullyWatched; anything else reports "watched to N%" where N is the
// truncated percentage, never below 1.
//
// duration must be non-zero unless lastPlayed == duration. Use WatchProgress
// when that cannot be guaranteed.
func FormatWatchProgress(lastPlayed, duration int) string {
	if lastPlayed == duration {
		return FullyWatched
	}
	return fmt.Sprintf("watched to %d%%", percent(lastPlayed, duration))
}

// WatchProgress is FormatWatchProgress with the duration precondition checked.
func WatchProgress(lastPlayed, duration int) (string, error) {
	if lastPlayed != duration && duration == 0 {
		return "", ErrZeroDuration
	}
	return FormatWatchProgress(lastPlayed, duration), nil
}

func percent(lastPlayed, duration int) int {
	p := int(float64(lastPlayed) / float64(duration) * 100)
	// Zero progress is still shown as 1% in the UI.
	if p < 1 {
		p = 1
	}
	return p
}

// FormatTimestampToDate formats a Unix millisecond timestamp as MM/DD in the
// local timezone.
func FormatTimestampToDate(epochMillis int64) string {
	return FormatTimestampToDateIn(epochMillis, time.Local)
}

// FormatTimestampToDateIn is FormatTimestampToDate for an explicit location.
func FormatTimestampToDateIn(epochMillis int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(epochMillis).In(loc).Format(dateLayout)
}
