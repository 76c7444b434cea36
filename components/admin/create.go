// components/admin/create.go

package admin

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/component"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/view"
)

// createJobInput is the full job schema.  Requirements and skills are
// comma- or newline-separated lists.
type createJobInput struct {
	Title        string `form:"title"        validate:"required,min=3,max=120"`
	Company      string `form:"company"      validate:"required,max=120"`
	Location     string `form:"location"     validate:"required,max=120"`
	JobType      string `form:"jobType"      validate:"required,oneof='Full-time' 'Part-time' 'Contract' 'Internship' 'Remote'"`
	Category     string `form:"category"     validate:"required,oneof='Engineering' 'Design' 'Product Management' 'Marketing' 'Sales' 'Customer Support' 'Human Resources' 'Finance' 'Operations' 'Legal' 'Other'"`
	Experience   string `form:"experience"   validate:"required,oneof='Entry Level' 'Mid Level' 'Senior Level' 'Director' 'Executive'"`
	Salary       string `form:"salary"       validate:"required,max=100"`
	Description  string `form:"description"  validate:"required,min=50,max=10000"`
	Requirements string `form:"requirements" validate:"required,max=5000"`
	Skills       string `form:"skills"       validate:"required,max=2000"`
	IsActive     string `form:"isActive"     validate:"omitempty,oneof=on true"`
}

var createJobFields = []string{
	"title", "company", "location", "jobType", "category", "experience",
	"salary", "description", "requirements", "skills", "isActive",
}

// jobInput converts the form to the API body.  Lists that are blank after
// splitting are reported as field errors.
func (in createJobInput) jobInput() (api.JobInput, error) {
	out := api.JobInput{
		Title:        in.Title,
		Company:      in.Company,
		Location:     in.Location,
		JobType:      in.JobType,
		Category:     in.Category,
		Experience:   in.Experience,
		Salary:       in.Salary,
		Description:  in.Description,
		Requirements: SplitList(in.Requirements),
		Skills:       SplitList(in.Skills),
		IsActive:     in.IsActive != "",
	}
	var fields []form.ErrorField
	if len(out.Requirements) == 0 {
		fields = append(fields, form.ErrorField{Name: "requirements", Message: "Add at least one requirement."})
	}
	if len(out.Skills) == 0 {
		fields = append(fields, form.ErrorField{Name: "skills", Message: "Add at least one skill."})
	}
	if fields != nil {
		return api.JobInput{}, form.Invalid(fields...)
	}
	return out, nil
}

type createJobData struct {
	JobTypes    []string
	Categories  []string
	Experiences []string
}

func (c *Component) createJobGET(w http.ResponseWriter, r *http.Request) {
	c.createJobForm(w, r, http.StatusOK, nil)
}

func (c *Component) createJobPOST(w http.ResponseWriter, r *http.Request) {
	var in createJobInput
	if err := form.Decode(r, &in); err != nil {
		c.createJobForm(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	body, err := in.jobInput()
	if err != nil {
		c.createJobForm(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	gw, err := component.GatewayAs[Gateway](r)
	if err != nil {
		component.Fail(w, r, c.view, err, "")
		return
	}
	err = gw.PostJob(r.Context(), body)
	if api.IsUnauthorized(err) {
		component.Fail(w, r, c.view, err, "")
		return
	}
	if err != nil {
		c.createJobForm(w, r, http.StatusUnprocessableEntity,
			form.Invalid(form.ErrorField{Message: api.Message(err, "Failed to create job")}))
		return
	}
	c.log.Info("job created", zap.String("title", body.Title), zap.String("company", body.Company))
	component.Flash(r, auth.LevelSuccess, "Job created successfully!")
	http.Redirect(w, r, "/admin/jobs", http.StatusSeeOther)
}

func (c *Component) createJobForm(w http.ResponseWriter, r *http.Request, status int, formErr error) {
	if formErr != nil && !form.IsValidationError(formErr) {
		formErr = form.Invalid(form.ErrorField{Message: "The form could not be read.  Please try again."})
	}
	values := make(map[string]string, len(createJobFields))
	for _, f := range createJobFields {
		values[f] = r.PostFormValue(f)
	}
	if r.Method == http.MethodGet {
		values["isActive"] = "on"
	}
	st, err := form.NewState(r, formErr, values)
	if err != nil {
		c.view.Error(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}
	component.RenderStatus(w, r, c.view, status, Name, "create-job", view.Page{
		Title: "Create Job",
		Form:  st,
		Data: createJobData{
			JobTypes:    api.JobTypes,
			Categories:  api.JobCategories,
			Experiences: api.ExperienceLevels,
		},
	})
}
