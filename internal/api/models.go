// internal/api/models.go
//
// Wire types for the job-board API.  Field names follow the server's JSON
// (Mongo-style `_id`, camelCase).  Populated references such as
// `application.jobId` may arrive either as a bare id string or as an
// embedded document; JobRef and UserRef accept both.

package api

import (
	"bytes"
	"encoding/json"
	"time"
)

//
// Users
//

// User is the profile record returned by GET /users/profile.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	Role      string    `json:"role,omitempty"`
	Skills    []string  `json:"skills,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoleLabel is the human label shown on the profile page.
func (u User) RoleLabel() string {
	if u.IsAdmin {
		return "Administrator"
	}
	return "Job Seeker"
}

// UserRef is a possibly-populated reference to a user.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (r *UserRef) UnmarshalJSON(b []byte) error {
	if id, ok := bareID(b); ok {
		*r = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	return json.Unmarshal(b, (*plain)(r))
}

//
// Jobs
//

// Job status values used by the review workflow.
const (
	JobPending  = "pending"
	JobApproved = "approved"
	JobRejected = "rejected"
)

// Option lists offered by the job forms.
var (
	JobTypes = []string{"Full-time", "Part-time", "Contract", "Internship", "Remote"}

	JobCategories = []string{
		"Engineering", "Design", "Product Management", "Marketing", "Sales",
		"Customer Support", "Human Resources", "Finance", "Operations", "Legal", "Other",
	}

	ExperienceLevels = []string{"Entry Level", "Mid Level", "Senior Level", "Director", "Executive"}
)

// Job is one posting.
type Job struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	JobType      string    `json:"jobType"`
	Category     string    `json:"category,omitempty"`
	Experience   string    `json:"experience,omitempty"`
	Salary       string    `json:"salary,omitempty"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	IsActive     bool      `json:"isActive"`
	Status       string    `json:"status,omitempty"`
	CreatedBy    *UserRef  `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// JobInput is the body of POST /job/post-job.
type JobInput struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	JobType      string   `json:"jobType,omitempty"`
	Category     string   `json:"category,omitempty"`
	Experience   string   `json:"experience,omitempty"`
	Salary       string   `json:"salary,omitempty"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	IsActive     bool     `json:"isActive"`
}

// JobRef is a possibly-populated reference to a job.
type JobRef struct {
	ID       string `json:"_id"`
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
}

func (r *JobRef) UnmarshalJSON(b []byte) error {
	if id, ok := bareID(b); ok {
		*r = JobRef{ID: id}
		return nil
	}
	type plain JobRef
	return json.Unmarshal(b, (*plain)(r))
}

//
// Applications
//

// Application status values.
const (
	ApplicationPending  = "pending"
	ApplicationReviewed = "reviewed"
	ApplicationRejected = "rejected"
)

// ApplicationStatuses lists the statuses an admin may assign.
var ApplicationStatuses = []string{ApplicationPending, ApplicationReviewed, ApplicationRejected}

// Application links a user to a job.
type Application struct {
	ID          string    `json:"_id"`
	Job         JobRef    `json:"jobId"`
	Applicant   UserRef   `json:"userId"`
	CoverLetter string    `json:"coverLetter,omitempty"`
	ResumeURL   string    `json:"resumeUrl,omitempty"`
	Skills      []string  `json:"skills,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

//
// helpers
//

// bareID reports whether b is a JSON string and returns it.
func bareID(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeList accepts a bare array, an object wrapping the array under field,
// or null.
func decodeList[T any](body []byte, field string) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}
	if body[0] == '[' {
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	raw, ok := wrapped[field]
	if !ok {
		return nil, ErrBadResponse
	}
	return decodeList[T](raw, field)
}
