package listing

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the storage form of PostDate and LastDate.
const DateLayout = "2006-01-02"

const (
	newWithinDays     = 3
	closingWithinDays = 5
	day               = 24 * time.Hour
)

// ParseDate parses an ISO calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// floorDays returns floor(d / 24h).
func floorDays(d time.Duration) int {
	return int(math.Floor(float64(d) / float64(day)))
}

// IsNew reports whether postDate lies within the last three days of now:
// floor((now - postDate) / 1 day) <= 3.
//
// Future-dated posts are not clamped and therefore count as new. An
// unparseable date is never new.
func IsNew(postDate string, now time.Time) bool {
	posted, err := ParseDate(postDate)
	if err != nil {
		return false
	}
	return floorDays(now.Sub(posted)) <= newWithinDays
}

// DaysRemaining returns floor((lastDate - now) / 1 day). It is negative once the
// deadline has passed. ok is false when lastDate does not parse.
func DaysRemaining(lastDate string, now time.Time) (days int, ok bool) {
	deadline, err := ParseDate(lastDate)
	if err != nil {
		return 0, false
	}
	return floorDays(deadline.Sub(now)), true
}

// IsClosingSoon reports whether 0 <= DaysRemaining(lastDate) <= 5.
func IsClosingSoon(lastDate string, now time.Time) bool {
	days, ok := DaysRemaining(lastDate, now)
	return ok && days >= 0 && days <= closingWithinDays
}

// Status bundles the derived flags renderers show next to a job.
type Status struct {
	New           bool `json:"isNew"`
	ClosingSoon   bool `json:"isClosingSoon"`
	DaysRemaining *int `json:"daysRemaining,omitempty"`
	Expired       bool `json:"isExpired"`
}

// Derive computes the status of job at now. Callers recompute it on every
// render.
func Derive(job Job, now time.Time) Status {
	st := Status{
		New:         IsNew(job.PostDate, now),
		ClosingSoon: IsClosingSoon(job.LastDate, now),
	}
	if days, ok := DaysRemaining(job.LastDate, now); ok {
		st.DaysRemaining = &days
		st.Expired = days < 0
	}
	return st
}

// DisplayDate turns YYYY-MM-DD into DD-MM-YYYY. Anything that does not split
// into three dash-separated parts is returned unchanged.
func DisplayDate(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return s
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
