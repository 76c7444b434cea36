// internal/api/client_test.go

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tr, err := NewTransport(Config{
		BaseURL: srv.URL + "/api",
		Timeout: 2 * time.Second,
		Breaker: BreakerConfig{
			Name:         t.Name(),
			MaxRequests:  1,
			Timeout:      time.Minute,
			FailureRatio: 0.5,
			MinRequests:  2,
		},
	})
	require.NoError(t, err)
	return tr.NewClient(), srv
}

func TestNewTransportRejectsBadURL(t *testing.T) {
	_, err := NewTransport(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestBearerHeaderFollowsToken(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"_id":"u1","name":"Ann"}`))
	})
	ctx := context.Background()

	_, err := c.GetProfile(ctx)
	require.NoError(t, err)
	c.SetToken("tok-1")
	_, err = c.GetProfile(ctx)
	require.NoError(t, err)
	c.ClearToken()
	_, err = c.GetProfile(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer tok-1", ""}, seen)
	assert.Equal(t, "", c.Token())
}

func TestLoginPostsCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var cred Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
		assert.Equal(t, "b@x.com", cred.Email)
		_, _ = w.Write([]byte(`{"token":"T","message":"ok"}`))
	})

	tok, err := c.Login(context.Background(), Credentials{Email: "b@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "T", tok)
	assert.Equal(t, "", c.Token(), "Login must not install the token itself")
}

func TestLoginWithoutTokenIsBadResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := c.Login(context.Background(), Credentials{})
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestErrorCarriesStatusAndMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Please verify your OTP first"}`))
	})

	_, err := c.Login(context.Background(), Credentials{Email: "b@x.com", Password: "bad"})
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusForbidden, ae.Status)
	assert.Equal(t, "Please verify your OTP first", ae.Message)
	assert.Equal(t, "Please verify your OTP first", Message(err, "Login failed"))
}

func TestMessageFallsBack(t *testing.T) {
	assert.Equal(t, "Login failed", Message(errors.New("boom"), "Login failed"))
	assert.Equal(t, "Login failed", Message(&Error{Status: 400}, "Login failed"))
	assert.Equal(t, "nope", Message(&Error{Status: 400, Message: "nope"}, "Login failed"))
	assert.True(t, IsUnauthorized(&Error{Status: 401}))
	assert.Equal(t, 0, Status(errors.New("x")))
}

func TestErrorFieldFallback(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Email already registered"}`))
	})
	_, err := c.Signup(context.Background(), SignupRequest{Email: "b@x.com"})
	assert.Equal(t, "Email already registered", Message(err, "Registration failed"))
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.GetProfile(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Something went wrong", Message(err, "Something went wrong"))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.ListJobs(ctx)
		assert.Equal(t, http.StatusBadGateway, Status(err))
	}
	_, err := c.ListJobs(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "open breaker must not reach the server")
	assert.Equal(t, "open", c.t.BreakerState())
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	for i := 0; i < 5; i++ {
		_, err := c.GetProfile(context.Background())
		assert.True(t, IsUnauthorized(err))
	}
	assert.Equal(t, "closed", c.t.BreakerState())
}

func TestGetProfileAcceptsWrappedUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"_id":"u9","name":"Zed","isAdmin":true}}`))
	})
	u, err := c.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "Administrator", u.RoleLabel())
}

func TestGetProfileWithoutIDIsBadResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"nobody"}`))
	})
	_, err := c.GetProfile(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestListShapes(t *testing.T) {
	cases := map[string]int{
		`[{"_id":"a"},{"_id":"b"}]`:                   2,
		`{"applications":[{"_id":"a","jobId":"j1"}]}`: 1,
		`null`: 0,
	}
	for body, want := range cases {
		apps, err := decodeApplications([]byte(body))
		require.NoError(t, err, body)
		assert.Len(t, apps, want, body)
	}
	_, err := decodeApplications([]byte(`{"other":[]}`))
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestRefsAcceptIDOrDocument(t *testing.T) {
	var apps []Application
	body := `[
		{"_id":"a1","jobId":"j1","userId":{"_id":"u1","name":"Ann","email":"a@x.com"},"status":"pending"},
		{"_id":"a2","jobId":{"_id":"j2","title":"Go Dev","company":"Acme"},"userId":"u2","status":"reviewed"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &apps))
	assert.Equal(t, "j1", apps[0].Job.ID)
	assert.Equal(t, "Ann", apps[0].Applicant.Name)
	assert.Equal(t, "Go Dev", apps[1].Job.Title)
	assert.Equal(t, "u2", apps[1].Applicant.ID)
}

func TestReviewAndDeleteRoutes(t *testing.T) {
	var calls []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "j1", body["jobId"])
			assert.Equal(t, JobApproved, body["status"])
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	ctx := context.Background()
	require.NoError(t, c.ReviewJob(ctx, "j1", JobApproved))
	require.NoError(t, c.DeleteJob(ctx, "j1"))
	assert.Equal(t, []string{"PUT /api/job/review", "DELETE /api/jobs/delete-job/j1"}, calls)
}

func TestApplyUploadsMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "j1", r.FormValue("jobId"))
		assert.Equal(t, "hire me", r.FormValue("coverLetter"))
		f, hdr, err := r.FormFile("resume")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "cv.pdf", hdr.Filename)
		assert.Equal(t, "%PDF", string(b))
		w.WriteHeader(http.StatusCreated)
	})
	err := c.Apply(context.Background(), ApplyInput{
		JobID:       "j1",
		CoverLetter: "hire me",
		ResumeName:  "cv.pdf",
		Resume:      strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
}

func TestGetJobSearchesList(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"j1","title":"A"},{"_id":"j2","title":"B"}]`))
	})
	j, ok, err := c.GetJob(context.Background(), "j2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "B", j.Title)

	_, ok, err = c.GetJob(context.Background(), "zz")
	require.NoError(t, err)
	assert.False(t, ok)
}
