// components/jobs/jobs.go
//
// Public job pages: home, the searchable list, and job details with the
// apply form.
//
// Context
//   Browsing is anonymous.  Applying needs a signed-in browser; the route
//   guard sends anyone else to /login.  The résumé is streamed straight
//   from the multipart form to the API, never written to disk here.
//
//------------------------------------------------------------------------------

package jobs

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/acl"
	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/component"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/view"
)

//go:embed templates/*.html
var templates embed.FS

// Name is the component and template namespace.
const Name = "jobs"

// homeCount is how many jobs the home page lists.
const homeCount = 6

// maxResume bounds an uploaded résumé.
const maxResume = 5 << 20

var resumeTypes = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

// Gateway is the slice of the API client these pages use.
type Gateway interface {
	ListJobs(ctx context.Context) ([]api.Job, error)
	GetJob(ctx context.Context, id string) (api.Job, bool, error)
	Apply(ctx context.Context, in api.ApplyInput) error
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
	_ Gateway               = (*api.Client)(nil)
)

// Component owns the public job pages.
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
	r.With(c.guard.RedirectAuthenticated).Get("/", c.home)
	r.Get("/jobs", c.list)
	r.Get("/jobs/{id}", c.details)
	r.With(c.guard.Require(acl.Authenticated)).Post("/jobs/{id}/apply", c.apply)
}

/*──────────────────────────── pages ───────────────────────────────────────*/

type listData struct {
	Jobs    []api.Job
	Total   int
	Filter  Filter
	Options Options
}

type detailData struct {
	Job     api.Job
	Applied bool
}

type applyInput struct {
	CoverLetter string `form:"cover_letter" validate:"max=5000"`
}

func (c *Component) home(w http.ResponseWriter, r *http.Request) {
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
	component.Render(w, r, c.view, Name, "home", view.Page{
		Title: "Find your next job",
		Data:  listData{Jobs: Latest(jobs, homeCount), Total: len(jobs), Options: OptionsFor(jobs)},
	})
}

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}

	var f Filter
	if err := form.DecodeValues(r.URL.Query(), &f); err != nil {
		c.view.Error(w, r, http.StatusBadRequest, "Invalid search.")
		return
	}

	jobs, err := gw.ListJobs(r.Context())
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch jobs")
		return
	}
	component.Render(w, r, c.view, Name, "list", view.Page{
		Title: "Jobs",
		Data:  listData{Jobs: f.Apply(jobs), Total: len(jobs), Filter: f, Options: OptionsFor(jobs)},
	})
}

func (c *Component) details(w http.ResponseWriter, r *http.Request) {
	c.showJob(w, r, http.StatusOK, nil, false)
}

// showJob renders the details page.  formErr may be nil.
func (c *Component) showJob(w http.ResponseWriter, r *http.Request, status int, formErr error, applied bool) {
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	job, ok, err := gw.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch job details. Please try again later.")
		return
	}
	if !ok {
		c.view.Error(w, r, http.StatusNotFound, "Job details not found")
		return
	}
	st, err := form.NewState(r, formErr, map[string]string{"cover_letter": r.PostFormValue("cover_letter")})
	if err != nil {
		c.view.Error(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}
	component.RenderStatus(w, r, c.view, status, Name, "details", view.Page{
		Title: job.Title,
		Form:  st,
		Data:  detailData{Job: job, Applied: applied},
	})
}

func (c *Component) apply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxResume+1<<20)

	var in applyInput
	if err := form.Decode(r, &in); err != nil {
		if !form.IsValidationError(err) {
			c.log.Info("apply form unreadable", zap.Error(err))
			err = form.Invalid(form.ErrorField{Name: "resume", Message: "Resume must be 5 MB or smaller."})
		}
		c.showJob(w, r, http.StatusUnprocessableEntity, err, false)
		return
	}

	file, hdr, err := r.FormFile("resume")
	if err != nil {
		c.showJob(w, r, http.StatusUnprocessableEntity,
			form.Invalid(form.ErrorField{Name: "resume", Message: "Please upload your resume"}), false)
		return
	}
	defer file.Close()
	if !resumeTypes[strings.ToLower(filepath.Ext(hdr.Filename))] {
		c.showJob(w, r, http.StatusUnprocessableEntity,
			form.Invalid(form.ErrorField{Name: "resume", Message: "Upload a PDF, DOC, or DOCX file."}), false)
		return
	}
	if hdr.Size > maxResume {
		c.showJob(w, r, http.StatusUnprocessableEntity,
			form.Invalid(form.ErrorField{Name: "resume", Message: "Resume must be 5 MB or smaller."}), false)
		return
	}

	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	err = gw.Apply(r.Context(), api.ApplyInput{
		JobID:       chi.URLParam(r, "id"),
		CoverLetter: in.CoverLetter,
		ResumeName:  filepath.Base(hdr.Filename),
		Resume:      file,
	})
	if api.IsUnauthorized(err) {
		component.Fail(w, r, c.view, err, "")
		return
	}
	if err != nil {
		c.showJob(w, r, http.StatusUnprocessableEntity,
			form.Invalid(form.ErrorField{Message: api.Message(err, "Failed to submit application")}), false)
		return
	}
	c.log.Info("application submitted", zap.String("job", chi.URLParam(r, "id")))
	c.showJob(w, r, http.StatusOK, nil, true)
}
