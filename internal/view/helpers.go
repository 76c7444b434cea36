// internal/view/helpers.go
//
// Template helpers.  UA helpers are keyed off *requestinfo.RequestInfo and
// tolerate nil so pages render outside the Enrich middleware (tests).

package view

import (
	"html/template"
	"time"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/requestinfo"
)

func uaFuncMap() template.FuncMap {
	return template.FuncMap{
		"browser": func(ri *requestinfo.RequestInfo) string {
			if ri == nil {
				return ""
			}
			return ri.UA.Browser
		},
		"os": func(ri *requestinfo.RequestInfo) string {
			if ri == nil {
				return ""
			}
			return ri.UA.OS
		},
		"device": func(ri *requestinfo.RequestInfo) string {
			if ri == nil {
				return ""
			}
			return ri.UA.Device
		},
		"isBot": func(ri *requestinfo.RequestInfo) bool { return ri != nil && ri.UA.IsBot },
		"deviceSummary": func(ri *requestinfo.RequestInfo) string {
			return ri.Summary()
		},
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// truncate shortens s to n runes, adding an ellipsis.
func truncate(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func noticeClass(l auth.Level) string { return "notice-" + l.String() }

func statusClass(status string) string {
	// Job and application statuses share the "rejected" spelling.
	switch status {
	case api.JobApproved, api.ApplicationReviewed:
		return "badge-ok"
	case api.JobRejected:
		return "badge-bad"
	default:
		return "badge-wait"
	}
}
