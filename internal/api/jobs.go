// internal/api/jobs.go
//
// Job endpoints.  ListJobs works anonymously; the rest need a bearer token,
// and PendingJobs, ReviewJob, and DeleteJob need an admin token.  The API,
// not this client, enforces roles.

package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListJobs returns every approved, active job.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	raw, err := c.do(ctx, "list_jobs", http.MethodGet, "/job/all", "", nil)
	if err != nil {
		return nil, err
	}
	return decodeJobs(raw)
}

// GetJob finds one job by id.  The API has no single-job route, so the list
// is fetched and searched; ok is false when id is unknown.
func (c *Client) GetJob(ctx context.Context, id string) (job Job, ok bool, err error) {
	jobs, err := c.ListJobs(ctx)
	if err != nil {
		return Job{}, false, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, true, nil
		}
	}
	return Job{}, false, nil
}

// UserJobs returns jobs posted by the current user.
func (c *Client) UserJobs(ctx context.Context) ([]Job, error) {
	raw, err := c.do(ctx, "user_jobs", http.MethodGet, "/job/user-jobs", "", nil)
	if err != nil {
		return nil, err
	}
	return decodeJobs(raw)
}

// PendingJobs returns jobs awaiting admin review.
func (c *Client) PendingJobs(ctx context.Context) ([]Job, error) {
	raw, err := c.do(ctx, "pending_jobs", http.MethodGet, "/job/pending-jobs", "", nil)
	if err != nil {
		return nil, err
	}
	return decodeJobs(raw)
}

// PostJob submits a job.  Jobs posted by non-admins start pending.
func (c *Client) PostJob(ctx context.Context, in JobInput) error {
	return c.doJSON(ctx, "post_job", http.MethodPost, "/job/post-job", in, nil)
}

// ReviewJob approves or rejects a pending job.  status is JobApproved or
// JobRejected.
func (c *Client) ReviewJob(ctx context.Context, jobID, status string) error {
	body := map[string]string{"jobId": jobID, "status": status}
	return c.doJSON(ctx, "review_job", http.MethodPut, "/job/review", body, nil)
}

// DeleteJob removes a job.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	return c.doJSON(ctx, "delete_job", http.MethodDelete, "/jobs/delete-job/"+url.PathEscape(jobID), nil, nil)
}

func decodeJobs(raw []byte) ([]Job, error) {
	jobs, err := decodeList[Job](raw, "jobs")
	if err != nil {
		return nil, ErrBadResponse
	}
	return jobs, nil
}
