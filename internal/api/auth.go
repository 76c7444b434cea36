// internal/api/auth.go
//
// Authentication endpoints.  Signup, VerifyOTP, ResendOTP, and Login need no
// bearer header; GetProfile does.

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// VerifyOTPRequest is the body of POST /auth/verify-otp.
type VerifyOTPRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	OTPToken string `json:"otpToken"`
}

type signupReply struct {
	OTPToken string `json:"otpToken"`
}

type loginReply struct {
	Token string `json:"token"`
}

// Signup registers an account and returns the OTP token that must accompany
// the verification code.
func (c *Client) Signup(ctx context.Context, in SignupRequest) (string, error) {
	var out signupReply
	if err := c.doJSON(ctx, "signup", http.MethodPost, "/auth/signup", in, &out); err != nil {
		return "", err
	}
	return out.OTPToken, nil
}

// VerifyOTP confirms the emailed code.
func (c *Client) VerifyOTP(ctx context.Context, in VerifyOTPRequest) error {
	return c.doJSON(ctx, "verify_otp", http.MethodPost, "/auth/verify-otp", in, nil)
}

// ResendOTP asks the API to email a fresh code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, "resend_otp", http.MethodPost, "/auth/resend-otp", body, nil)
}

// Login exchanges credentials for a bearer token.  It does not install the
// token; callers decide when to SetToken.
func (c *Client) Login(ctx context.Context, cred Credentials) (string, error) {
	var out loginReply
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", cred, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: login: no token", ErrBadResponse)
	}
	return out.Token, nil
}

// GetProfile returns the user the current bearer token belongs to.  Both a
// bare user document and one wrapped under "user" are accepted.
func (c *Client) GetProfile(ctx context.Context) (User, error) {
	raw, err := c.do(ctx, "get_profile", http.MethodGet, "/users/profile", "", nil)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err == nil && u.ID != "" {
		return u, nil
	}
	var wrapped struct {
		User User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User.ID != "" {
		return wrapped.User, nil
	}
	return User{}, fmt.Errorf("%w: get_profile: no user id", ErrBadResponse)
}
