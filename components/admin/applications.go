// components/admin/applications.go

package admin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/component"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/view"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// AppFilter is the /admin/applications query string.
type AppFilter struct {
	Status string `form:"status" validate:"omitempty,oneof=all pending reviewed rejected"`
	Query  string `form:"q"      validate:"max=100"`
}

// Match reports whether a passes f.  Query matches the applicant's name or
// email and the job's title or company, case-insensitively.
func (f AppFilter) Match(a api.Application) bool {
	if f.Status != "" && f.Status != StatusAll && a.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, s := range []string{a.Applicant.Name, a.Applicant.Email, a.Job.Title, a.Job.Company} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// Apply returns the applications that pass f, in input order.
func (f AppFilter) Apply(apps []api.Application) []api.Application {
	out := make([]api.Application, 0, len(apps))
	for _, a := range apps {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// SplitList splits a comma- or newline-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type applicationsData struct {
	Filter   AppFilter
	Statuses []string
	Total    int
	Apps     []api.Application
	Skills   string // set when the list came from filter-by-skills
	Back     string // query string the row forms return to
}

func (c *Component) applications(w http.ResponseWriter, r *http.Request) {
	var f AppFilter
	if err := form.DecodeValues(r.URL.Query(), &f); err != nil {
		f = AppFilter{}
	}
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	apps, err := gw.AllApplications(r.Context())
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to fetch applications")
		return
	}
	c.renderApplications(w, r, http.StatusOK, applicationsData{
		Filter: f,
		Total:  len(apps),
		Apps:   f.Apply(apps),
		Back:   r.URL.RawQuery,
	}, nil)
}

// skillsInput is the filter-by-skills form.
type skillsInput struct {
	Skills string `form:"skills" validate:"max=500"`
}

func (c *Component) filterBySkills(w http.ResponseWriter, r *http.Request) {
	var in skillsInput
	if err := form.Decode(r, &in); err != nil {
		c.renderApplications(w, r, http.StatusUnprocessableEntity, applicationsData{}, err)
		return
	}
	skills := SplitList(in.Skills)
	if len(skills) == 0 {
		c.renderApplications(w, r, http.StatusUnprocessableEntity, applicationsData{},
			form.Invalid(form.ErrorField{Name: "skills", Message: "Please enter skills to filter by"}))
		return
	}
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	apps, err := gw.FilterBySkills(r.Context(), skills)
	if err != nil {
		component.Fail(w, r, c.view, err, "Failed to filter applications")
		return
	}
	c.renderApplications(w, r, http.StatusOK, applicationsData{
		Total:  len(apps),
		Apps:   apps,
		Skills: strings.Join(skills, ", "),
	}, nil)
}

func (c *Component) renderApplications(w http.ResponseWriter, r *http.Request, status int, d applicationsData, formErr error) {
	if formErr != nil && !form.IsValidationError(formErr) {
		formErr = form.Invalid(form.ErrorField{Message: "The form could not be read.  Please try again."})
	}
	d.Statuses = api.ApplicationStatuses
	if d.Filter.Status == "" {
		d.Filter.Status = StatusAll
	}
	st, err := form.NewState(r, formErr, map[string]string{"skills": r.PostFormValue("skills")})
	if err != nil {
		c.view.Error(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}
	component.RenderStatus(w, r, c.view, status, Name, "applications", view.Page{
		Title: "Applications",
		Form:  st,
		Data:  d,
	})
}

// statusInput is the per-row status form.  back is the list query to
// return to.
type statusInput struct {
	Status string `form:"status" validate:"required,oneof=pending reviewed rejected"`
	Back   string `form:"back"   validate:"max=300"`
}

func (c *Component) updateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	decodeErr := form.Decode(r, &in)
	back := "/admin/applications"
	if q, err := url.ParseQuery(strings.TrimPrefix(in.Back, "?")); err == nil && len(q) > 0 {
		back += "?" + q.Encode()
	}
	c.act(w, r, back, func(ctx context.Context, gw Gateway, id string) (string, error) {
		if decodeErr != nil {
			return "", decodeErr
		}
		return "Application status updated", gw.UpdateApplicationStatus(ctx, id, in.Status)
	}, "Failed to update status")
}
