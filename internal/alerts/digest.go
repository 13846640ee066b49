// Package alerts announces new and closing-soon jobs to a Telegram chat.
//
// Each job is announced at most once per kind; the Ledger remembers what has
// already been sent.
package alerts

import (
	"fmt"
	"strings"
	"time"

	"jobnotify/internal/listing"
)

// Kind separates the two announcements a job can get.
type Kind string

const (
	KindNew         Kind = "new"
	KindClosingSoon Kind = "closing"
)

// Item is one job to announce.
type Item struct {
	Kind Kind
	Job  listing.Job
	Days int // days remaining, only meaningful for KindClosingSoon
}

// Key is the ledger key of the item.
func (it Item) Key() string {
	return string(it.Kind) + ":" + it.Job.ID
}

// Collect returns the announcement candidates among jobs at now: every new
// job, then every job closing soon. Order within each group follows jobs.
func Collect(jobs []listing.Job, now time.Time) []Item {
	var fresh, closing []Item
	for _, j := range jobs {
		st := listing.Derive(j, now)
		if st.New {
			fresh = append(fresh, Item{Kind: KindNew, Job: j})
		}
		if st.ClosingSoon && st.DaysRemaining != nil {
			closing = append(closing, Item{Kind: KindClosingSoon, Job: j, Days: *st.DaysRemaining})
		}
	}
	return append(fresh, closing...)
}

// Batch splits items into chunks of at most size.
func Batch(items []Item, size int) [][]Item {
	if size <= 0 {
		size = 1
	}
	var out [][]Item
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

// escaper renders untrusted text for the Telegram HTML parse mode.
type escaper func(string) string

// FormatBatch renders one message. offset is the number of items already
// sent in earlier batches; total is the size of the whole digest.
func FormatBatch(items []Item, offset, total int, esc escaper) string {
	var sb strings.Builder
	if offset == 0 {
		fmt.Fprintf(&sb, "📢 <b>Job notification digest</b>\n%d update(s)\n\n", total)
	}
	for i, it := range items {
		j := it.Job
		label := "🆕 New"
		if it.Kind == KindClosingSoon {
			label = fmt.Sprintf("⏳ Closing in %d day(s)", it.Days)
		}
		fmt.Fprintf(&sb, "<b>%d.</b> %s · %s\n", offset+i+1, esc(j.PositionName), label)
		fmt.Fprintf(&sb, "   🏛 %s\n", esc(j.Board))
		if j.Location != "" {
			fmt.Fprintf(&sb, "   📍 %s\n", esc(j.Location))
		}
		if j.Vacancies != nil {
			fmt.Fprintf(&sb, "   👥 %d vacancies\n", *j.Vacancies)
		}
		if j.LastDate != "" {
			fmt.Fprintf(&sb, "   📅 Last date %s\n", esc(listing.DisplayDate(j.LastDate)))
		}
		if j.ApplyURL != "" {
			fmt.Fprintf(&sb, "   🔗 <a href=\"%s\">Apply</a>\n", esc(j.ApplyURL))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
