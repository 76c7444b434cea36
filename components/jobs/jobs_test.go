// components/jobs/jobs_test.go

package jobs

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/pagetest"
)

func setup(t *testing.T) (*pagetest.Harness, api.Job) {
	t.Helper()
	h := pagetest.New(t, New())
	h.API.AddUser(api.User{Name: "Ann", Email: "ann@x.com"}, "secret1")
	job := h.API.AddJob(api.Job{Title: "Go Developer", Company: "Acme", Location: "Berlin", Category: "Engineering"})
	h.API.AddJob(api.Job{Title: "Designer", Company: "Pixel", Location: "Remote", Category: "Design"})
	h.API.AddJob(api.Job{Title: "Hidden", Company: "Acme", Status: api.JobPending})
	return h, job
}

func TestHomeListsApprovedJobs(t *testing.T) {
	h, _ := setup(t)
	rec := h.Get("/", h.Browser(t, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Go Developer")
	assert.Contains(t, body, "Designer")
	assert.NotContains(t, body, "Hidden")
}

func TestListFilters(t *testing.T) {
	h, _ := setup(t)
	rec := h.Get("/jobs?"+url.Values{"category": {"Design"}}.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Designer")
	assert.NotContains(t, body, "Go Developer")
	assert.Contains(t, body, "Showing 1 of 2 jobs")
}

func TestListEmptyResult(t *testing.T) {
	h, _ := setup(t)
	rec := h.Get("/jobs?q=astronaut", nil)
	assert.Contains(t, rec.Body.String(), "No jobs found")
}

func TestListAPIFailure(t *testing.T) {
	h, _ := setup(t)
	h.API.Fail("list_jobs", api.ErrUnavailable)
	rec := h.Get("/jobs", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch jobs")
}

func TestDetails(t *testing.T) {
	h, job := setup(t)

	rec := h.Get("/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Log in to apply")

	rec = h.Get("/jobs/"+job.ID, h.Browser(t, "ann@x.com"))
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)

	rec = h.Get("/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplyRequiresLogin(t *testing.T) {
	h, job := setup(t)
	rec := h.PostFile(t, "/jobs/"+job.ID+"/apply", nil, "resume", "cv.pdf", "%PDF", h.Browser(t, ""))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, h.API.Applications())
}

func TestApplyUploadsResume(t *testing.T) {
	h, job := setup(t)
	ck := h.Browser(t, "ann@x.com")

	rec := h.PostFile(t, "/jobs/"+job.ID+"/apply",
		url.Values{"cover_letter": {"hire me"}}, "resume", "cv.pdf", "%PDF-1.7", ck)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Application submitted successfully!")

	apps := h.API.Applications()
	require.Len(t, apps, 1)
	assert.Equal(t, job.ID, apps[0].Job.ID)
	assert.Equal(t, "hire me", apps[0].CoverLetter)
	assert.Equal(t, "%PDF-1.7", h.API.Resume(apps[0].ID))

	// Second attempt surfaces the API message.
	rec = h.PostFile(t, "/jobs/"+job.ID+"/apply", nil, "resume", "cv.pdf", "%PDF", ck)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have already applied for this job")
}

func TestApplyValidatesResume(t *testing.T) {
	h, job := setup(t)
	ck := h.Browser(t, "ann@x.com")

	rec := h.PostFile(t, "/jobs/"+job.ID+"/apply", nil, "", "", "", ck)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload your resume")

	rec = h.PostFile(t, "/jobs/"+job.ID+"/apply", nil, "resume", "cv.exe", "MZ", ck)
	assert.Contains(t, rec.Body.String(), "Upload a PDF, DOC, or DOCX file.")
	assert.Empty(t, h.API.Applications())
}

func TestApplyWithRejectedTokenExpiresSession(t *testing.T) {
	h, job := setup(t)
	ck := h.Browser(t, "ann@x.com")
	require.Equal(t, http.StatusOK, h.Get("/jobs/"+job.ID, ck).Code)

	h.API.Fail("apply", &api.Error{Op: "apply", Status: http.StatusUnauthorized})
	rec := h.PostFile(t, "/jobs/"+job.ID+"/apply", nil, "resume", "cv.pdf", "%PDF", ck)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, h.Controller(t, ck).Snapshot().State.IsAuthenticated())
}
