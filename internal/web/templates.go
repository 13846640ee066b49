package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"

	"jobnotify/internal/listing"
)

//go:embed templates/*.html
var templateFS embed.FS

func mustParseTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
}

var templateFuncs = template.FuncMap{
	"displayDate": listing.DisplayDate,
	"vacancies": func(n *int) string {
		if n == nil {
			return ""
		}
		return humanize.Comma(int64(*n))
	},
	// posted renders a post date relative to the date it was rendered on.
	"posted": func(postDate string, now time.Time) string {
		t, err := listing.ParseDate(postDate)
		if err != nil {
			return ""
		}
		today := now.UTC().Truncate(24 * time.Hour)
		if t.Equal(today) {
			return "today"
		}
		return humanize.RelTime(t, today, "ago", "from now")
	},
	"derefInt": func(n *int) int {
		if n == nil {
			return 0
		}
		return *n
	},
	"selected": func(a, b string) bool { return a == b },
}
