package utils

import (
	"time"
)

// UnixMilliToTime converts an epoch-milliseconds timestamp, the unit the
// session records use, to a time.Time.
func UnixMilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// DisplayClock renders a timestamp the way booking slips show it.
func DisplayClock(t time.Time) string {
	return t.Format("3:04:05 PM")
}

// DisplayDateTime renders a timestamp for session end records.
func DisplayDateTime(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}
