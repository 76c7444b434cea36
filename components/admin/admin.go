// components/admin/admin.go
//
// Administrator pages: dashboard, job management, pending-job review,
// applications, and the full create-job form.
//
// Context
//   Every route lives under /admin and requires an administrator.  Actions
//   (delete, approve, reject, status change) are CSRF-checked POSTs that
//   flash a notice and redirect back to the list they came from, so a
//   reload never repeats them.
//
//------------------------------------------------------------------------------

package admin

import (
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/jobboard/internal/acl"
	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/component"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/view"
)

//go:embed templates/*.html
var templates embed.FS

// Name is the component and template namespace.
const Name = "admin"

// pendingPreview is how many pending jobs the dashboard lists.
const pendingPreview = 3

// Gateway is the slice of the API client these pages use.
type Gateway interface {
	ListJobs(ctx context.Context) ([]api.Job, error)
	PendingJobs(ctx context.Context) ([]api.Job, error)
	PostJob(ctx context.Context, in api.JobInput) error
	ReviewJob(ctx context.Context, jobID, status string) error
	DeleteJob(ctx context.Context, jobID string) error
	AllApplications(ctx context.Context) ([]api.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationID, status string) error
	FilterBySkills(ctx context.Context, skills []string) ([]api.Application, error)
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
	_ Gateway               = (*api.Client)(nil)
)

// Component owns the /admin pages.
type Component struct {
	view  *view.Engine
	guard *acl.Guard
	log   *zap.Logger
}

// New returns an unmounted Component.
func New() *Component { return &Component{} }

func init() { component.Register(New()) }

func (c *Component) Name() string { return Name }

func (c *Component) Init(d component.Deps) error {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return err
	}
	d.View.Register(Name, sub)
	c.view, c.guard, c.log = d.View, d.Guard, d.Log
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(c.guard.Require(acl.Admin))

		r.Get("/dashboard", c.dashboard)

		r.Get("/jobs", c.jobs)
		r.Post("/jobs/{id}/delete", c.deleteJob)

		r.Get("/pending-jobs", c.pendingJobs)
		r.Post("/pending-jobs/{id}/approve", c.review(api.JobApproved))
		r.Post("/pending-jobs/{id}/reject", c.review(api.JobRejected))

		r.Get("/applications", c.applications)
		r.Post("/applications/filter-by-skills", c.filterBySkills)
		r.Post("/applications/{id}/status", c.updateStatus)

		r.Get("/create-job", c.createJobGET)
		r.Post("/create-job", c.createJobPOST)
	})
}

/*──────────────────────────── dashboard ───────────────────────────────────*/

// Stats are the admin dashboard counters.
type Stats struct {
	TotalJobs    int
	PendingJobs  int
	Applications int
}

type dashboardData struct {
	Stats   Stats
	Pending []api.Job
}

func (c *Component) dashboard(w http.ResponseWriter, r *http.Request) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}

	var (
		jobs, pending []api.Job
		apps          []api.Application
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { jobs, err = gw.ListJobs(ctx); return })
	g.Go(func() (err error) { pending, err = gw.PendingJobs(ctx); return })
	g.Go(func() (err error) { apps, err = gw.AllApplications(ctx); return })
	if err := g.Wait(); err != nil {
		component.Fail(w, r, c.view, err, "Failed to load dashboard data")
		return
	}

	preview := pending
	if len(preview) > pendingPreview {
		preview = preview[:pendingPreview]
	}
	component.Render(w, r, c.view, Name, "dashboard", view.Page{
		Title: "Admin Dashboard",
		Data: dashboardData{
			Stats:   Stats{TotalJobs: len(jobs), PendingJobs: len(pending), Applications: len(apps)},
			Pending: preview,
		},
	})
}

/*──────────────────────────── jobs ────────────────────────────────────────*/

func (c *Component) jobs(w http.ResponseWriter, r *http.Request) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	jobs, err := gw.ListJobs(r.Context())
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch jobs")
		return
	}
	component.Render(w, r, c.view, Name, "jobs", view.Page{Title: "Manage Jobs", Data: jobs})
}

func (c *Component) deleteJob(w http.ResponseWriter, r *http.Request) {
	c.act(w, r, "/admin/jobs", func(ctx context.Context, gw Gateway, id string) (string, error) {
		return "Job deleted successfully", gw.DeleteJob(ctx, id)
	}, "Failed to delete job")
}

func (c *Component) pendingJobs(w http.ResponseWriter, r *http.Request) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	jobs, err := gw.PendingJobs(r.Context())
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch pending jobs")
		return
	}
	component.Render(w, r, c.view, Name, "pending-jobs", view.Page{Title: "Pending Jobs", Data: jobs})
}

// reviewReturn lists the pages a review form may send the admin back to,
// keyed by the form's `from` field.  Anything else returns to the queue.
var reviewReturn = map[string]string{
	"dashboard": "/admin/dashboard",
}

func (c *Component) review(status string) http.HandlerFunc {
	done := "Job approved successfully"
	if status == api.JobRejected {
		done = "Job rejected successfully"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		back := "/admin/pending-jobs"
		if to, ok := reviewReturn[r.PostFormValue("from")]; ok {
			back = to
		}
		c.act(w, r, back, func(ctx context.Context, gw Gateway, id string) (string, error) {
			return done, gw.ReviewJob(ctx, id, status)
		}, "Failed to update job status")
	}
}

/*──────────────────────────── actions ─────────────────────────────────────*/

// actionInput carries nothing but the CSRF token.
type actionInput struct{}

// act runs a POST action on the {id} in the route and redirects to back.
// Failures other than a rejected token become an error notice.
func (c *Component) act(w http.ResponseWriter, r *http.Request, back string,
	do func(ctx context.Context, gw Gateway, id string) (string, error), fallback string) {

	if err := form.Decode(r, &actionInput{}); err != nil {
		component.Flash(r, auth.LevelError, "Security token invalid.  Please refresh and try again.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	id := chi.URLParam(r, "id")
	done, err := do(r.Context(), gw, id)
	switch {
	case api.IsUnauthorized(err):
		component.Fail(w, r, c.view, err, "")
		return
	case err != nil:
		c.log.Warn("admin action failed", zap.String("path", r.URL.Path), zap.String("id", id), zap.Error(err))
		component.Flash(r, auth.LevelError, api.Message(err, fallback))
	default:
		c.log.Info("admin action", zap.String("path", r.URL.Path), zap.String("id", id))
		component.Flash(r, auth.LevelSuccess, done)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
