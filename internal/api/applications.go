// internal/api/applications.go
//
// Application endpoints.  Apply uploads the resume as multipart form data;
// everything else is JSON.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ApplyInput is one job application.  Resume is streamed as the "resume"
// file part.
type ApplyInput struct {
	JobID       string
	CoverLetter string
	ResumeName  string
	Resume      io.Reader
}

// Apply submits an application for the current user.
func (c *Client) Apply(ctx context.Context, in ApplyInput) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("jobId", in.JobID); err != nil {
		return err
	}
	if err := mw.WriteField("coverLetter", in.CoverLetter); err != nil {
		return err
	}
	if in.Resume != nil {
		fw, err := mw.CreateFormFile("resume", in.ResumeName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(fw, in.Resume); err != nil {
			return fmt.Errorf("api apply: copy resume: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	_, err := c.do(ctx, "apply", http.MethodPost, "/application/apply", mw.FormDataContentType(), &buf)
	return err
}

// MyApplications returns the current user's applications.
func (c *Client) MyApplications(ctx context.Context) ([]Application, error) {
	raw, err := c.do(ctx, "my_applications", http.MethodGet, "/application/my-applications", "", nil)
	if err != nil {
		return nil, err
	}
	return decodeApplications(raw)
}

// AllApplications returns every application (admin).
func (c *Client) AllApplications(ctx context.Context) ([]Application, error) {
	raw, err := c.do(ctx, "all_applications", http.MethodGet, "/application/all", "", nil)
	if err != nil {
		return nil, err
	}
	return decodeApplications(raw)
}

// UpdateApplicationStatus sets status (one of ApplicationStatuses).
func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID, status string) error {
	body := map[string]string{"applicationId": applicationID, "status": status}
	return c.doJSON(ctx, "update_application_status", http.MethodPut, "/application/update-status", body, nil)
}

// FilterBySkills returns applications whose resumes list any of skills.
func (c *Client) FilterBySkills(ctx context.Context, skills []string) ([]Application, error) {
	b, err := json.Marshal(map[string][]string{"requiredSkills": skills})
	if err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, "filter_by_skills", http.MethodPost, "/application/filter-by-skills",
		"application/json", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return decodeApplications(raw)
}

func decodeApplications(raw []byte) ([]Application, error) {
	apps, err := decodeList[Application](raw, "applications")
	if err != nil {
		return nil, ErrBadResponse
	}
	return apps, nil
}
