// Package timefmt renders post and comment timestamps relative to now.
package timefmt

import (
	"strconv"
	"time"
)

const day = 24 * time.Hour

// Relative formats t as seen at now: "Just now", "5m", "3h", "Yesterday",
// "4d", then a short date with the year only when it differs from now's.
func Relative(now, t time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "m"
	case d < day:
		return strconv.Itoa(int(d/time.Hour)) + "h"
	case d < 2*day:
		return "Yesterday"
	case d < 7*day:
		return strconv.Itoa(int(d/day)) + "d"
	}

	t = t.In(now.Location())
	if t.Year() != now.Year() {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}
