package web

import (
	"bytes"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobnotify/internal/listing"
	"jobnotify/internal/saved"
)

// jobView is a job as rendered: the record, its derived status and whether
// the visitor saved it.
type jobView struct {
	listing.Job
	listing.Status
	Saved bool `json:"saved"`
}

// listingQuery reads the search box and filter selection from the URL.
func listingQuery(r *http.Request) (string, listing.Selection) {
	q := r.URL.Query()
	sel := listing.Selection{
		Board:       q.Get("board"),
		Location:    q.Get("location"),
		Eligibility: q.Get("eligibility"),
	}
	return strings.TrimSpace(q.Get("q")), sel.Normalize()
}

func (s *Server) filteredViews(r *http.Request, jobs []listing.Job, set *saved.Set) []jobView {
	query, sel := listingQuery(r)
	now := s.now()

	matched := listing.Filter(jobs, query, sel)
	views := make([]jobView, 0, len(matched))
	for _, j := range matched {
		views = append(views, jobView{Job: j, Status: listing.Derive(j, now), Saved: set.Has(j.ID)})
	}
	return views
}

// ─── Page ────────────────────────────────────────────────────────────────────

type pageData struct {
	Query     string
	Selection listing.Selection
	Master    listing.MasterData
	Jobs      []jobView
	Stats     listing.Stats
	Total     int
	Saved     int
	Filtered  bool
	Now       time.Time
}

func (s *Server) listingPage(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	set := saved.Load(r.Context(), s.slots.For(visitorID(w, r)))
	query, sel := listingQuery(r)

	data := pageData{
		Query:     query,
		Selection: sel,
		Master:    snap.Master,
		Jobs:      s.filteredViews(r, snap.Jobs, set),
		Stats:     listing.ComputeStats(snap.Jobs, s.now()),
		Total:     len(snap.Jobs),
		Saved:     set.Len(),
		Filtered:  query != "" || !sel.IsDefault(),
		Now:       s.now(),
	}

	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.Printf("[web] render listing: %v", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) toggleSavedForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.toggle(w, r); err != nil {
		log.Printf("[web] save toggle: %v", err)
	}

	back := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path == "/" && ref.Host == r.Host {
		back = ref.RequestURI()
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) (bool, error) {
	return saved.Toggle(r.Context(), s.slots.For(visitorID(w, r)), r.PathValue("id"))
}

// ─── JSON API ────────────────────────────────────────────────────────────────

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	set := saved.Load(r.Context(), s.slots.For(visitorID(w, r)))
	jsonOK(w, s.filteredViews(r, snap.Jobs, set))
}

func (s *Server) getMasterData(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, s.catalog.Snapshot().Master)
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, listing.ComputeStats(s.catalog.Snapshot().Jobs, s.now()))
}

func (s *Server) listSaved(w http.ResponseWriter, r *http.Request) {
	set := saved.Load(r.Context(), s.slots.For(visitorID(w, r)))
	jsonOK(w, set.IDs())
}

func (s *Server) toggleSaved(w http.ResponseWriter, r *http.Request) {
	isSaved, err := s.toggle(w, r)
	if err != nil {
		log.Printf("[web] save toggle: %v", err)
		jsonError(w, "could not store saved jobs", http.StatusBadGateway)
		return
	}
	jsonOK(w, map[string]any{"id": r.PathValue("id"), "saved": isSaved})
}
