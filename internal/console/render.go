package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"jobnotify/internal/listing"
	"jobnotify/internal/saved"
)

// jobRows builds the listing table, header row first.
func jobRows(jobs []listing.Job, now time.Time, set *saved.Set) [][]string {
	rows := [][]string{{"", "Post Date", "Board", "Position", "Eligibility", "Location", "Last Date", "Status"}}
	for _, j := range jobs {
		mark := ""
		if set.Has(j.ID) {
			mark = "★"
		}
		rows = append(rows, []string{
			mark,
			listing.DisplayDate(j.PostDate),
			j.Board,
			position(j),
			strings.Join(j.Eligibility, ", "),
			j.Location,
			listing.DisplayDate(j.LastDate),
			statusText(listing.Derive(j, now)),
		})
	}
	return rows
}

func position(j listing.Job) string {
	if j.Vacancies == nil {
		return j.PositionName
	}
	return fmt.Sprintf("%s (%s posts)", j.PositionName, humanize.Comma(int64(*j.Vacancies)))
}

func statusText(st listing.Status) string {
	var parts []string
	if st.New {
		parts = append(parts, "NEW")
	}
	if st.ClosingSoon && st.DaysRemaining != nil {
		parts = append(parts, fmt.Sprintf("Closing in %d day(s)", *st.DaysRemaining))
	}
	if st.Expired {
		parts = append(parts, "Expired")
	}
	return strings.Join(parts, " · ")
}

func statsLine(st listing.Stats, savedCount int) string {
	top := "none"
	if len(st.TopLocations) > 0 {
		top = strings.Join(st.TopLocations, ", ")
	}
	return fmt.Sprintf("%d jobs · %d new · %d closing soon · %d saved · top locations: %s",
		st.TotalJobs, st.NewToday, st.ClosingSoon, savedCount, top)
}

func filterLine(query string, sel listing.Selection) string {
	q := query
	if q == "" {
		q = "(none)"
	}
	return fmt.Sprintf("search: %s · %s · %s · %s", q, sel.Board, sel.Location, sel.Eligibility)
}

// jobLabel identifies a job in selection prompts.
func jobLabel(j listing.Job) string {
	return fmt.Sprintf("%s | %s | %s [%s]", j.PositionName, j.Board, j.Location, j.ID)
}
