// internal/pagetest/fakeapi.go
//
// In-memory stand-in for the remote job-board API.
//
// Context
//   API holds the shared data (accounts, jobs, applications).  Each
//   browser gets its own *Client, which carries the bearer token the way
//   *api.Client does and exposes the same method set, so every component
//   gateway interface is satisfied.  Tokens are "tok-<email>"; the valid
//   OTP is "123456".  Fail(op, err) injects an error for one operation.
//
//------------------------------------------------------------------------------

package pagetest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yanizio/jobboard/internal/api"
)

// ValidOTP is the only code VerifyOTP accepts.
const ValidOTP = "123456"

// API is safe for concurrent use.
type API struct {
	mu        sync.Mutex
	users     map[string]api.User // by email
	passwords map[string]string
	verified  map[string]bool
	jobs      []api.Job
	apps      []api.Application
	failures  map[string]error
	calls     []string
	resumes   map[string]string // application id -> resume body
	seq       int
}

// NewAPI returns an empty API.
func NewAPI() *API {
	return &API{
		users:     map[string]api.User{},
		passwords: map[string]string{},
		verified:  map[string]bool{},
		failures:  map[string]error{},
		resumes:   map[string]string{},
	}
}

// AddUser registers a verified account.
func (a *API) AddUser(u api.User, password string) api.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u.ID == "" {
		u.ID = a.nextLocked("u")
	}
	a.users[u.Email] = u
	a.passwords[u.Email] = password
	a.verified[u.Email] = true
	return u
}

// AddJob stores j, assigning an id when empty.
func (a *API) AddJob(j api.Job) api.Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	if j.ID == "" {
		j.ID = a.nextLocked("j")
	}
	if j.Status == "" {
		j.Status = api.JobApproved
	}
	a.jobs = append(a.jobs, j)
	return j
}

// AddApplication stores app, assigning an id when empty.
func (a *API) AddApplication(app api.Application) api.Application {
	a.mu.Lock()
	defer a.mu.Unlock()
	if app.ID == "" {
		app.ID = a.nextLocked("a")
	}
	if app.Status == "" {
		app.Status = api.ApplicationPending
	}
	a.apps = append(a.apps, app)
	return app
}

// Fail makes every later call to op return err.  A nil err clears it.
func (a *API) Fail(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failures, op)
		return
	}
	a.failures[op] = err
}

// Calls returns the operations served so far, in order.
func (a *API) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Jobs returns a copy of the stored jobs.
func (a *API) Jobs() []api.Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]api.Job(nil), a.jobs...)
}

// Applications returns a copy of the stored applications.
func (a *API) Applications() []api.Application {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]api.Application(nil), a.apps...)
}

// Resume returns the uploaded resume body for an application.
func (a *API) Resume(appID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resumes[appID]
}

// Client returns a per-browser client with no token.
func (a *API) Client() *Client { return &Client{a: a} }

func (a *API) nextLocked(prefix string) string {
	a.seq++
	return fmt.Sprintf("%s%d", prefix, a.seq)
}

func unauthorized(op string) error {
	return &api.Error{Op: op, Status: http.StatusUnauthorized, Message: "Invalid token"}
}

func forbidden(op string) error {
	return &api.Error{Op: op, Status: http.StatusForbidden, Message: "Admin access required"}
}

// Client mirrors *api.Client.
type Client struct {
	a     *API
	mu    sync.Mutex
	token string
}

func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) ClearToken() { c.SetToken("") }

// enter records op and returns an injected failure.  The API lock is held
// on success; the caller must unlock.
func (c *Client) enter(op string) error {
	c.a.mu.Lock()
	c.a.calls = append(c.a.calls, op)
	if err := c.a.failures[op]; err != nil {
		c.a.mu.Unlock()
		return err
	}
	return nil
}

// userLocked resolves the bearer token.
func (c *Client) userLocked(op string) (api.User, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	u, ok := c.a.users[strings.TrimPrefix(tok, "tok-")]
	if tok == "" || !ok {
		return api.User{}, unauthorized(op)
	}
	return u, nil
}

func (c *Client) adminLocked(op string) (api.User, error) {
	u, err := c.userLocked(op)
	if err == nil && !u.IsAdmin {
		err = forbidden(op)
	}
	return u, err
}

//
// auth
//

func (c *Client) Signup(_ context.Context, in api.SignupRequest) (string, error) {
	if err := c.enter("signup"); err != nil {
		return "", err
	}
	defer c.a.mu.Unlock()
	if _, ok := c.a.users[in.Email]; ok {
		return "", &api.Error{Op: "signup", Status: http.StatusBadRequest, Message: "Email already registered"}
	}
	c.a.users[in.Email] = api.User{ID: c.a.nextLocked("u"), Name: in.Name, Email: in.Email, Role: in.Role}
	c.a.passwords[in.Email] = in.Password
	return "otp-" + in.Email, nil
}

func (c *Client) VerifyOTP(_ context.Context, in api.VerifyOTPRequest) error {
	if err := c.enter("verify_otp"); err != nil {
		return err
	}
	defer c.a.mu.Unlock()
	if in.OTP != ValidOTP {
		return &api.Error{Op: "verify_otp", Status: http.StatusBadRequest, Message: "Invalid OTP"}
	}
	c.a.verified[in.Email] = true
	return nil
}

func (c *Client) ResendOTP(_ context.Context, _ string) error {
	if err := c.enter("resend_otp"); err != nil {
		return err
	}
	c.a.mu.Unlock()
	return nil
}

func (c *Client) Login(_ context.Context, cred api.Credentials) (string, error) {
	if err := c.enter("login"); err != nil {
		return "", err
	}
	defer c.a.mu.Unlock()
	pw, ok := c.a.passwords[cred.Email]
	if !ok || pw != cred.Password {
		return "", &api.Error{Op: "login", Status: http.StatusBadRequest, Message: "Invalid credentials"}
	}
	if !c.a.verified[cred.Email] {
		return "", &api.Error{Op: "login", Status: http.StatusForbidden, Message: "Please verify your OTP first"}
	}
	return "tok-" + cred.Email, nil
}

func (c *Client) GetProfile(context.Context) (api.User, error) {
	if err := c.enter("profile"); err != nil {
		return api.User{}, err
	}
	defer c.a.mu.Unlock()
	return c.userLocked("profile")
}

//
// jobs
//

func (c *Client) ListJobs(context.Context) ([]api.Job, error) {
	if err := c.enter("list_jobs"); err != nil {
		return nil, err
	}
	defer c.a.mu.Unlock()
	var out []api.Job
	for _, j := range c.a.jobs {
		if j.Status == api.JobApproved {
			out = append(out, j)
		}
	}
	return out, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (api.Job, bool, error) {
	jobs, err := c.ListJobs(ctx)
	if err != nil {
		return api.Job{}, false, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, true, nil
		}
	}
	return api.Job{}, false, nil
}

func (c *Client) UserJobs(context.Context) ([]api.Job, error) {
	if err := c.enter("user_jobs"); err != nil {
		return nil, err
	}
	defer c.a.mu.Unlock()
	u, err := c.userLocked("user_jobs")
	if err != nil {
		return nil, err
	}
	var out []api.Job
	for _, j := range c.a.jobs {
		if j.CreatedBy != nil && j.CreatedBy.ID == u.ID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (c *Client) PendingJobs(context.Context) ([]api.Job, error) {
	if err := c.enter("pending_jobs"); err != nil {
		return nil, err
	}
	defer c.a.mu.Unlock()
	if _, err := c.adminLocked("pending_jobs"); err != nil {
		return nil, err
	}
	var out []api.Job
	for _, j := range c.a.jobs {
		if j.Status == api.JobPending {
			out = append(out, j)
		}
	}
	return out, nil
}

func (c *Client) PostJob(_ context.Context, in api.JobInput) error {
	if err := c.enter("post_job"); err != nil {
		return err
	}
	defer c.a.mu.Unlock()
	u, err := c.userLocked("post_job")
	if err != nil {
		return err
	}
	status := api.JobPending
	if u.IsAdmin {
		status = api.JobApproved
	}
	c.a.jobs = append(c.a.jobs, api.Job{
		ID:           c.a.nextLocked("j"),
		Title:        in.Title,
		Company:      in.Company,
		Location:     in.Location,
		JobType:      in.JobType,
		Category:     in.Category,
		Experience:   in.Experience,
		Salary:       in.Salary,
		Description:  in.Description,
		Requirements: in.Requirements,
		Skills:       in.Skills,
		IsActive:     in.IsActive,
		Status:       status,
		CreatedBy:    &api.UserRef{ID: u.ID, Name: u.Name, Email: u.Email},
		CreatedAt:    time.Now(),
	})
	return nil
}

func (c *Client) ReviewJob(_ context.Context, jobID, status string) error {
	if err := c.enter("review_job"); err != nil {
		return err
	}
	defer c.a.mu.Unlock()
	if _, err := c.adminLocked("review_job"); err != nil {
		return err
	}
	for i := range c.a.jobs {
		if c.a.jobs[i].ID == jobID {
			c.a.jobs[i].Status = status
			return nil
		}
	}
	return &api.Error{Op: "review_job", Status: http.StatusNotFound, Message: "Job not found"}
}

func (c *Client) DeleteJob(_ context.Context, jobID string) error {
	if err := c.enter("delete_job"); err != nil {
		return err
	}
	defer c.a.mu.Unlock()
	if _, err := c.adminLocked("delete_job"); err != nil {
		return err
	}
	for i := range c.a.jobs {
		if c.a.jobs[i].ID == jobID {
			c.a.jobs = append(c.a.jobs[:i], c.a.jobs[i+1:]...)
			return nil
		}
	}
	return &api.Error{Op: "delete_job", Status: http.StatusNotFound, Message: "Job not found"}
}

//
// applications
//

func (c *Client) Apply(_ context.Context, in api.ApplyInput) error {
	var resume []byte
	if in.Resume != nil {
		b, err := io.ReadAll(in.Resume)
		if err != nil {
			return err
		}
		resume = b
	}
	if err := c.enter("apply"); err != nil {
		return err
	}
	defer c.a.mu.Unlock()
	u, err := c.userLocked("apply")
	if err != nil {
		return err
	}
	for _, app := range c.a.apps {
		if app.Job.ID == in.JobID && app.Applicant.ID == u.ID {
			return &api.Error{Op: "apply", Status: http.StatusBadRequest, Message: "You have already applied for this job"}
		}
	}
	var ref api.JobRef
	for _, j := range c.a.jobs {
		if j.ID == in.JobID {
			ref = api.JobRef{ID: j.ID, Title: j.Title, Company: j.Company, Location: j.Location}
		}
	}
	if ref.ID == "" {
		return &api.Error{Op: "apply", Status: http.StatusNotFound, Message: "Job not found"}
	}
	id := c.a.nextLocked("a")
	c.a.apps = append(c.a.apps, api.Application{
		ID:          id,
		Job:         ref,
		Applicant:   api.UserRef{ID: u.ID, Name: u.Name, Email: u.Email},
		CoverLetter: in.CoverLetter,
		ResumeURL:   "/uploads/" + in.ResumeName,
		Status:      api.ApplicationPending,
		CreatedAt:   time.Now(),
	})
	c.a.resumes[id] = string(resume)
	return nil
}

func (c *Client) MyApplications(context.Context) ([]api.Application, error) {
	if err := c.enter("my_applications"); err != nil {
		return nil, err
	}
	defer c.a.mu.Unlock()
	u, err := c.userLocked("my_applications")
	if err != nil {
		return nil, err
	}
	var out []api.Application
	for _, app := range c.a.apps {
		if app.Applicant.ID == u.ID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (c *Client) AllApplications(context.Context) ([]api.Application, error) {
	if err := c.enter("all_applications"); err != nil {
		return nil, err
	}
	defer c.a.mu.Unlock()
	if _, err := c.adminLocked("all_applications"); err != nil {
		return nil, err
	}
	return append([]api.Application(nil), c.a.apps...), nil
}

func (c *Client) UpdateApplicationStatus(_ context.Context, applicationID, status string) error {
	if err := c.enter("update_application_status"); err != nil {
		return err
	}
	defer c.a.mu.Unlock()
	if _, err := c.adminLocked("update_application_status"); err != nil {
		return err
	}
	for i := range c.a.apps {
		if c.a.apps[i].ID == applicationID {
			c.a.apps[i].Status = status
			return nil
		}
	}
	return &api.Error{Op: "update_application_status", Status: http.StatusNotFound, Message: "Application not found"}
}

func (c *Client) FilterBySkills(_ context.Context, skills []string) ([]api.Application, error) {
	if err := c.enter("filter_by_skills"); err != nil {
		return nil, err
	}
	defer c.a.mu.Unlock()
	if _, err := c.adminLocked("filter_by_skills"); err != nil {
		return nil, err
	}
	var out []api.Application
	for _, app := range c.a.apps {
		if anyFold(app.Skills, skills) {
			out = append(out, app)
		}
	}
	return out, nil
}

func anyFold(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
