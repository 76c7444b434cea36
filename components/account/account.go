// components/account/account.go
//
// Signed-in member pages: dashboard, my applications, profile, post a job,
// and my jobs.
//
// Context
//   Every route here requires an authenticated browser.  Pages read the
//   user from the controller snapshot rather than calling the profile
//   endpoint again; the controller refreshed it at sign-in or bootstrap.
//   The dashboard fans out its two API calls with errgroup.
//
//------------------------------------------------------------------------------

package account

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"sort"

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
const Name = "account"

// recentCount is how many applications the dashboard lists.
const recentCount = 3

// Gateway is the slice of the API client these pages use.
type Gateway interface {
	ListJobs(ctx context.Context) ([]api.Job, error)
	UserJobs(ctx context.Context) ([]api.Job, error)
	PostJob(ctx context.Context, in api.JobInput) error
	MyApplications(ctx context.Context) ([]api.Application, error)
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
	_ Gateway               = (*api.Client)(nil)
)

// Component owns the member pages.
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
	r.Group(func(r chi.Router) {
		r.Use(c.guard.Require(acl.Authenticated))
		r.Get("/dashboard", c.dashboard)
		r.Get("/my-applications", c.applications)
		r.Get("/profile", c.profile)
		r.Get("/post-job", c.postJobGET)
		r.Post("/post-job", c.postJobPOST)
		r.Get("/my-jobs", c.myJobs)
	})
}

/*──────────────────────────── dashboard ───────────────────────────────────*/

// Stats are the dashboard counters.
type Stats struct {
	TotalJobs    int
	Applications int
	Pending      int
	Reviewed     int
}

type dashboardData struct {
	Stats  Stats
	Recent []api.Application
}

// Summarize counts apps by status and returns the newest n.
func Summarize(apps []api.Application, n int) (pending, reviewed int, recent []api.Application) {
	for _, a := range apps {
		switch a.Status {
		case api.ApplicationPending:
			pending++
		case api.ApplicationReviewed:
			reviewed++
		}
	}
	recent = append([]api.Application(nil), apps...)
	sort.SliceStable(recent, func(i, k int) bool { return recent[i].CreatedAt.After(recent[k].CreatedAt) })
	if len(recent) > n {
		recent = recent[:n]
	}
	return pending, reviewed, recent
}

func (c *Component) dashboard(w http.ResponseWriter, r *http.Request) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}

	var (
		jobs []api.Job
		apps []api.Application
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { jobs, err = gw.ListJobs(ctx); return })
	g.Go(func() (err error) { apps, err = gw.MyApplications(ctx); return })
	if err := g.Wait(); err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch dashboard data. Please try again later.")
		return
	}

	pending, reviewed, recent := Summarize(apps, recentCount)
	component.Render(w, r, c.view, Name, "dashboard", view.Page{
		Title: "Dashboard",
		Data: dashboardData{
			Stats:  Stats{TotalJobs: len(jobs), Applications: len(apps), Pending: pending, Reviewed: reviewed},
			Recent: recent,
		},
	})
}

/*──────────────────────────── lists ───────────────────────────────────────*/

func (c *Component) applications(w http.ResponseWriter, r *http.Request) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	apps, err := gw.MyApplications(r.Context())
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch applications")
		return
	}
	_, _, apps = Summarize(apps, len(apps))
	component.Render(w, r, c.view, Name, "applications", view.Page{Title: "My Applications", Data: apps})
}

func (c *Component) myJobs(w http.ResponseWriter, r *http.Request) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	jobs, err := gw.UserJobs(r.Context())
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch your jobs")
		return
	}
	component.Render(w, r, c.view, Name, "my-jobs", view.Page{Title: "My Jobs", Data: jobs})
}

func (c *Component) profile(w http.ResponseWriter, r *http.Request) {
	component.Render(w, r, c.view, Name, "profile", view.Page{Title: "Profile"})
}

/*──────────────────────────── post job ────────────────────────────────────*/

// postJobInput is the short member form.  Members' jobs start pending.
type postJobInput struct {
	Title       string `form:"title"       validate:"required,min=3,max=120"`
	Company     string `form:"company"     validate:"required,max=120"`
	Location    string `form:"location"    validate:"required,max=120"`
	Description string `form:"description" validate:"required,min=20,max=10000"`
}

var postJobFields = []string{"title", "company", "location", "description"}

func (c *Component) postJobGET(w http.ResponseWriter, r *http.Request) {
	c.postJobForm(w, r, http.StatusOK, nil)
}

func (c *Component) postJobPOST(w http.ResponseWriter, r *http.Request) {
	var in postJobInput
	if err := form.Decode(r, &in); err != nil {
		c.postJobForm(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	err = gw.PostJob(r.Context(), api.JobInput{
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Description: in.Description,
		IsActive:    true,
	})
	if api.IsUnauthorized(err) {
		component.Fail(w, r, c.view, err, "")
		return
	}
	if err != nil {
		c.postJobForm(w, r, http.StatusUnprocessableEntity,
			form.Invalid(form.ErrorField{Message: api.Message(err, "Failed to post job")}))
		return
	}
	c.log.Info("job posted", zap.String("title", in.Title))
	component.Flash(r, auth.LevelSuccess, "Job posted successfully!  It will appear once approved.")
	http.Redirect(w, r, "/my-jobs", http.StatusSeeOther)
}

func (c *Component) postJobForm(w http.ResponseWriter, r *http.Request, status int, formErr error) {
	if formErr != nil && !form.IsValidationError(formErr) {
		formErr = form.Invalid(form.ErrorField{Message: "The form could not be read.  Please try again."})
	}
	values := make(map[string]string, len(postJobFields))
	for _, f := range postJobFields {
		values[f] = r.PostFormValue(f)
	}
	st, err := form.NewState(r, formErr, values)
	if err != nil {
		c.view.Error(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}
	component.RenderStatus(w, r, c.view, status, Name, "post-job", view.Page{Title: "Post a Job", Form: st})
}
