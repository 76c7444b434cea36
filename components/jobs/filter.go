// components/jobs/filter.go
//
// Client-side job search.  The API returns every approved job in one list,
// so search and the dropdown filters run here.

package jobs

import (
	"sort"
	"strings"

	"github.com/yanizio/jobboard/internal/api"
)

// Filter is the /jobs query string.
type Filter struct {
	Query    string `form:"q"        validate:"max=100"`
	Category string `form:"category" validate:"max=100"`
	Location string `form:"location" validate:"max=100"`
	Type     string `form:"type"     validate:"max=100"`
}

// Active reports whether any filter is set.
func (f Filter) Active() bool {
	return f.Query != "" || f.Category != "" || f.Location != "" || f.Type != ""
}

// Match reports whether j passes f.  Query matches title, company, or
// description case-insensitively; the others are exact.
func (f Filter) Match(j api.Job) bool {
	if q := strings.ToLower(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(j.Title), q) &&
			!strings.Contains(strings.ToLower(j.Company), q) &&
			!strings.Contains(strings.ToLower(j.Description), q) {
			return false
		}
	}
	if f.Category != "" && j.Category != f.Category {
		return false
	}
	if f.Location != "" && j.Location != f.Location {
		return false
	}
	if f.Type != "" && j.JobType != f.Type {
		return false
	}
	return true
}

// Apply returns the jobs that pass f, in input order.
func (f Filter) Apply(jobs []api.Job) []api.Job {
	out := make([]api.Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

// Options are the dropdown values, drawn from the jobs themselves.
type Options struct {
	Categories []string
	Locations  []string
	Types      []string
}

// OptionsFor collects the distinct non-empty values of each filter field.
func OptionsFor(jobs []api.Job) Options {
	return Options{
		Categories: distinct(jobs, func(j api.Job) string { return j.Category }),
		Locations:  distinct(jobs, func(j api.Job) string { return j.Location }),
		Types:      distinct(jobs, func(j api.Job) string { return j.JobType }),
	}
}

func distinct(jobs []api.Job, field func(api.Job) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, j := range jobs {
		if v := field(j); v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Latest returns up to n jobs, newest first.
func Latest(jobs []api.Job, n int) []api.Job {
	out := append([]api.Job(nil), jobs...)
	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
