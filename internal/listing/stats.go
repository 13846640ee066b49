package listing

import (
	"sort"
	"time"
)

const topLocationCount = 4

// Stats is the quick-stats summary shown above the listing.
type Stats struct {
	TotalJobs    int      `json:"totalJobs"`
	NewToday     int      `json:"newToday"`
	ClosingSoon  int      `json:"closingSoon"`
	TopLocations []string `json:"topLocations"`
}

// ComputeStats summarises jobs at now.
//
// Unlike Derive it compares ISO date strings against day boundaries, so a job
// posted exactly three days ago counts as new here regardless of the hour.
// TopLocations holds up to four locations by descending count, ties broken by
// first appearance.
func ComputeStats(jobs []Job, now time.Time) Stats {
	now = now.UTC()
	today := now.Format(DateLayout)
	threeDaysAgo := now.Add(-newWithinDays * day).Format(DateLayout)
	fiveDaysAhead := now.Add(closingWithinDays * day).Format(DateLayout)

	st := Stats{TotalJobs: len(jobs), TopLocations: []string{}}

	counts := make(map[string]int)
	var order []string
	for _, job := range jobs {
		if job.PostDate >= threeDaysAgo {
			st.NewToday++
		}
		if job.LastDate >= today && job.LastDate <= fiveDaysAhead {
			st.ClosingSoon++
		}
		if _, seen := counts[job.Location]; !seen {
			order = append(order, job.Location)
		}
		counts[job.Location]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topLocationCount {
		order = order[:topLocationCount]
	}
	st.TopLocations = append(st.TopLocations, order...)
	return st
}
