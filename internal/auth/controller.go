// internal/auth/controller.go
//
// Per-browser authentication controller.
//
/*
Context
--------
Controller is the single owner of one browser's session: who is signed
in, whether that is still being worked out, and what registration is
waiting on an emailed code.  Pages read it through Snapshot() and mutate
it only through the operations below.

  • Bootstrap  – hydrate from storage and validate the token once.
  • Register   – sign up, remember {email, otpToken}, go to /verify-otp.
  • VerifyOTP  – confirm the code, go to /login.
  • ResendOTP  – ask for a new code, at most once per cooldown.
  • Login      – exchange credentials, fetch the profile, go home.
  • Logout     – local sign-out, always succeeds.
  • Expire     – sign-out forced by a 401 or an expired token.

Consistency
-----------
Token and user are written to Storage and mirrored into the gateway header
inside one commit step guarded by commitMu.  Network calls never hold a
lock.  Every commit from Bootstrap or Login re-checks a generation counter
that Logout and Expire bump, so a sign-out always wins over a stale
success that lands after it.

Failure semantics
-----------------
Every API failure produces an error notice with the server's message (or
a fallback) and is returned to the caller so the form can show it inline.
Nothing is retried.  Bootstrap fails safe: any error means Anonymous.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/metrics"
)

// Storage keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// storeTimeout bounds a durable write made on behalf of a request that may
// already be gone.
const storeTimeout = 5 * time.Second

// unverifiedMessage is the 403 body the API sends for a login on an account
// whose email was never confirmed.
const unverifiedMessage = "Please verify your OTP first"

var (
	ErrLoginInFlight         = errors.New("auth: a login is already in progress")
	ErrSuperseded            = errors.New("auth: superseded by a later sign-out")
	ErrNoPendingVerification = errors.New("auth: no registration is waiting for verification")
	ErrResendTooSoon         = errors.New("auth: verification code was sent recently")
	ErrVerificationRequired  = errors.New("auth: account email not verified")
	ErrProfileUnavailable    = errors.New("auth: signed in but profile could not be loaded")
)

// Storage is the durable per-browser key-value surface.
type Storage interface {
	Get(ctx context.Context, key string) (val string, found bool, err error)
	Set(ctx context.Context, key, val string) error
	Remove(ctx context.Context, keys ...string) error
}

// Gateway is the subset of the API client the controller drives.
// *api.Client satisfies it.
type Gateway interface {
	Signup(ctx context.Context, in api.SignupRequest) (otpToken string, err error)
	VerifyOTP(ctx context.Context, in api.VerifyOTPRequest) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, cred api.Credentials) (token string, err error)
	GetProfile(ctx context.Context) (api.User, error)
	SetToken(tok string)
	ClearToken()
}

// RegisterInput is the signup form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Options tunes a Controller.  Zero values select defaults.
type Options struct {
	ResendCooldown time.Duration
	Logger         *zap.Logger
	Now            func() time.Time
}

// Controller is safe for concurrent use by many request goroutines.
type Controller struct {
	store Storage
	gw    Gateway
	log   *zap.Logger
	now   func() time.Time

	resendCooldown time.Duration

	commitMu sync.Mutex // serialises storage + header + state commits

	mu            sync.Mutex // guards the fields below
	state         State
	busy          int
	gen           uint64
	loginInFlight bool
	pending       *PendingOTP
	lastResend    time.Time
	expiresAt     time.Time
	arrived       bool // became Authenticated; cleared by TakeArrival
	notices       []Notice
	changed       chan struct{} // closed and replaced on every change

	ready     chan struct{}
	readyOnce sync.Once
}

// New returns a Controller in the Unknown state.  Call Bootstrap once.
func New(store Storage, gw Gateway, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		store:          store,
		gw:             gw,
		log:            opts.Logger,
		now:            opts.Now,
		resendCooldown: opts.ResendCooldown,
		changed:        make(chan struct{}),
		ready:          make(chan struct{}),
	}
}

/*──────────────────────────── readers ─────────────────────────────────────*/

// Snapshot returns a consistent copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     c.state,
		Loading:   c.state.Kind() == Unknown || c.busy > 0,
		ExpiresAt: c.expiresAt,
	}
	if c.pending != nil {
		p := *c.pending
		s.Pending = &p
	}
	return s
}

// Ready is closed once the first Bootstrap has finished.
func (c *Controller) Ready() <-chan struct{} { return c.ready }

// WaitSettled blocks until the controller is not loading or ctx is done,
// and returns the latest snapshot either way.
func (c *Controller) WaitSettled(ctx context.Context) Snapshot {
	for {
		c.mu.Lock()
		s, ch := c.snapshotLocked(), c.changed
		c.mu.Unlock()
		if !s.Loading {
			return s
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return c.Snapshot()
		}
	}
}

// Notices drains queued notices.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// TakeArrival reports whether the session became Authenticated since the
// last call, and clears the mark.
func (c *Controller) TakeArrival() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.arrived
	c.arrived = false
	return a
}

// Gateway exposes the API client bound to this browser, for page data.
func (c *Controller) Gateway() Gateway { return c.gw }

/*──────────────────────────── bootstrap ───────────────────────────────────*/

// Bootstrap hydrates state from storage.  A stored token is validated with
// one profile call; any failure clears storage and yields Anonymous.
func (c *Controller) Bootstrap(ctx context.Context) error {
	// Ready closes after end(), so a caller woken by it sees Loading false.
	defer c.readyOnce.Do(func() { close(c.ready) })
	gen := c.begin()
	defer c.end()

	tok, ok, err := c.store.Get(ctx, KeyToken)
	if err != nil {
		c.log.Warn("bootstrap storage read failed", zap.Error(err))
	}
	if err != nil || !ok || tok == "" {
		return c.commitAnonymous(gen, "bootstrap", "anonymous")
	}

	if !c.installToken(gen, tok) {
		return c.superseded("bootstrap")
	}

	profile, err := c.gw.GetProfile(ctx)
	if err != nil {
		c.log.Info("bootstrap token rejected", zap.Int("status", api.Status(err)), zap.Error(err))
		c.commitMu.Lock()
		defer c.commitMu.Unlock()
		if !c.current(gen) {
			return c.superseded("bootstrap")
		}
		c.clearLocked(ctx)
		c.setState(AnonymousState(), time.Time{})
		metrics.AuthOperations.WithLabelValues("bootstrap", "invalid_token").Inc()
		return nil
	}

	// A readable cached user wins; otherwise the fresh profile is cached.
	user, cached := profile, false
	if raw, ok, err := c.store.Get(ctx, KeyUser); err == nil && ok {
		if u, good := decodeUser(raw); good {
			user, cached = u, true
		}
	}

	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	if !c.current(gen) {
		return c.superseded("bootstrap")
	}
	if !cached {
		if err := c.storeUser(ctx, profile); err != nil {
			c.log.Warn("bootstrap user cache write failed", zap.Error(err))
		}
	}
	exp, _ := ExpiryFromToken(tok)
	c.setState(AuthenticatedState(user), exp)
	metrics.AuthOperations.WithLabelValues("bootstrap", "authenticated").Inc()
	c.log.Debug("bootstrap authenticated", zap.String("user", user.ID))
	return nil
}

/*──────────────────────────── register / OTP ──────────────────────────────*/

// Register signs up with role "user".  On success the pending verification
// is replaced and the caller is sent to the OTP page.
func (c *Controller) Register(ctx context.Context, in RegisterInput) (Intent, error) {
	c.begin()
	defer c.end()

	otpToken, err := c.gw.Signup(ctx, api.SignupRequest{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     "user",
	})
	if err != nil {
		c.notify(LevelError, api.Message(err, "Registration failed"))
		metrics.AuthOperations.WithLabelValues("register", "error").Inc()
		return IntentNone, err
	}

	c.mu.Lock()
	c.pending = &PendingOTP{Email: in.Email, OTPToken: otpToken}
	c.lastResend = c.now()
	c.pushLocked(LevelSuccess, "Registration successful! Please verify your OTP.")
	c.signalLocked()
	c.mu.Unlock()

	metrics.AuthOperations.WithLabelValues("register", "ok").Inc()
	c.log.Info("registration accepted", zap.String("email", in.Email))
	return IntentVerifyOTP, nil
}

// VerifyOTP submits code for the pending registration.
func (c *Controller) VerifyOTP(ctx context.Context, code string) (Intent, error) {
	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()
	if p == nil {
		return IntentRegister, ErrNoPendingVerification
	}

	c.begin()
	defer c.end()

	err := c.gw.VerifyOTP(ctx, api.VerifyOTPRequest{Email: p.Email, OTP: code, OTPToken: p.OTPToken})
	if err != nil {
		c.notify(LevelError, api.Message(err, "OTP verification failed"))
		metrics.AuthOperations.WithLabelValues("verify_otp", "error").Inc()
		return IntentNone, err
	}

	c.mu.Lock()
	if c.pending != nil && c.pending.Email == p.Email {
		c.pending = nil
	}
	c.pushLocked(LevelSuccess, "OTP verification successful!")
	c.signalLocked()
	c.mu.Unlock()

	metrics.AuthOperations.WithLabelValues("verify_otp", "ok").Inc()
	return IntentLogin, nil
}

// ResendOTP asks the API to email a new code for the pending registration.
// Calls within the cooldown fail with ErrResendTooSoon.
func (c *Controller) ResendOTP(ctx context.Context) (Intent, error) {
	c.mu.Lock()
	p := c.pending
	if p == nil {
		c.mu.Unlock()
		return IntentRegister, ErrNoPendingVerification
	}
	if wait := c.resendWaitLocked(); wait > 0 {
		c.mu.Unlock()
		return IntentNone, fmt.Errorf("%w: retry in %ds", ErrResendTooSoon, int(wait.Round(time.Second)/time.Second))
	}
	c.lastResend = c.now()
	c.mu.Unlock()

	if err := c.gw.ResendOTP(ctx, p.Email); err != nil {
		c.mu.Lock()
		c.lastResend = time.Time{}
		c.mu.Unlock()
		c.notify(LevelError, api.Message(err, "Failed to resend OTP"))
		metrics.AuthOperations.WithLabelValues("resend_otp", "error").Inc()
		return IntentNone, err
	}
	c.notify(LevelSuccess, "OTP resent successfully!")
	metrics.AuthOperations.WithLabelValues("resend_otp", "ok").Inc()
	return IntentNone, nil
}

// ResendWait reports how long until ResendOTP is allowed again.
func (c *Controller) ResendWait() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resendWaitLocked()
}

func (c *Controller) resendWaitLocked() time.Duration {
	if c.lastResend.IsZero() || c.resendCooldown <= 0 {
		return 0
	}
	wait := c.resendCooldown - c.now().Sub(c.lastResend)
	if wait < 0 {
		return 0
	}
	return wait
}

/*──────────────────────────── login / logout ──────────────────────────────*/

// Login signs in.  The token is stored and installed, then the profile is
// fetched; if that fails the token is withdrawn and the login fails.  A 403
// for an unverified account sets the pending verification and sends the
// caller to the OTP page instead of reporting a generic failure.
func (c *Controller) Login(ctx context.Context, cred api.Credentials) (Intent, error) {
	c.mu.Lock()
	if c.loginInFlight {
		c.mu.Unlock()
		return IntentNone, ErrLoginInFlight
	}
	c.loginInFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loginInFlight = false
		c.mu.Unlock()
	}()

	gen := c.begin()
	defer c.end()

	tok, err := c.gw.Login(ctx, cred)
	if err != nil {
		if isUnverified(err) {
			c.mu.Lock()
			c.pending = &PendingOTP{Email: cred.Email}
			c.pushLocked(LevelWarning, unverifiedMessage)
			c.signalLocked()
			c.mu.Unlock()
			metrics.AuthOperations.WithLabelValues("login", "unverified").Inc()
			return IntentVerifyOTP, fmt.Errorf("%w: %w", ErrVerificationRequired, err)
		}
		c.notify(LevelError, api.Message(err, "Login failed"))
		metrics.AuthOperations.WithLabelValues("login", "error").Inc()
		return IntentNone, err
	}

	c.commitMu.Lock()
	if !c.current(gen) {
		c.commitMu.Unlock()
		return IntentNone, c.superseded("login")
	}
	wctx, cancel := detached(ctx)
	err = c.store.Set(wctx, KeyToken, tok)
	cancel()
	if err != nil {
		c.commitMu.Unlock()
		c.notify(LevelError, "Login failed")
		metrics.AuthOperations.WithLabelValues("login", "storage_error").Inc()
		return IntentNone, err
	}
	c.gw.SetToken(tok)
	// A Bootstrap still holding the old generation must not overwrite us.
	gen = c.advance()
	c.commitMu.Unlock()

	user, err := c.gw.GetProfile(ctx)

	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	if !c.current(gen) {
		return IntentNone, c.superseded("login")
	}
	if err != nil {
		c.clearLocked(ctx)
		c.setState(AnonymousState(), time.Time{})
		c.notify(LevelError, "Login successful but failed to fetch user profile")
		metrics.AuthOperations.WithLabelValues("login", "profile_error").Inc()
		return IntentNone, fmt.Errorf("%w: %w", ErrProfileUnavailable, err)
	}
	if err := c.storeUser(ctx, user); err != nil {
		c.log.Warn("login user cache write failed", zap.Error(err))
	}

	exp, _ := ExpiryFromToken(tok)
	c.setState(AuthenticatedState(user), exp)
	c.notify(LevelSuccess, "Login successful!")
	metrics.AuthOperations.WithLabelValues("login", "ok").Inc()

	intent := HomeIntent(user)
	c.log.Info("login succeeded",
		zap.String("user", user.ID),
		zap.Bool("admin", user.IsAdmin),
		zap.String("intent", intent.String()),
		zap.Time("token_exp", exp),
	)
	return intent, nil
}

// Logout clears the session locally.  It never fails and needs no server
// round trip; any in-flight Login or Bootstrap result is discarded.
func (c *Controller) Logout(ctx context.Context) Intent {
	c.signOut(ctx, "logout", LevelSuccess, "Logged out successfully")
	return IntentLogin
}

// Expire ends an authenticated session whose token the API rejected (a 401
// while a page loaded data) or whose exp has passed.  It is a no-op for a
// session that is not authenticated.
func (c *Controller) Expire(ctx context.Context, cause error) Intent {
	if !c.Snapshot().State.IsAuthenticated() {
		return IntentLogin
	}
	c.log.Info("session expired", zap.Error(cause))
	c.signOut(ctx, "expire", LevelWarning, "Your session has expired. Please log in again.")
	return IntentLogin
}

func (c *Controller) signOut(ctx context.Context, op string, lvl Level, text string) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	c.advance()
	c.clearLocked(ctx)
	c.setState(AnonymousState(), time.Time{})
	c.notify(lvl, text)
	metrics.AuthOperations.WithLabelValues(op, "ok").Inc()
}

/*──────────────────────────── internals ───────────────────────────────────*/

// begin marks an operation in flight and returns the current generation.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy++
	c.signalLocked()
	return c.gen
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy--
	c.signalLocked()
}

// advance bumps the generation, invalidating every result started before it.
func (c *Controller) advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.gen
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Controller) superseded(op string) error {
	metrics.AuthOperations.WithLabelValues(op, "superseded").Inc()
	c.log.Debug("result discarded after sign-out", zap.String("op", op))
	return ErrSuperseded
}

// installToken sets the gateway header unless a sign-out happened since gen.
func (c *Controller) installToken(gen uint64, tok string) bool {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	if !c.current(gen) {
		return false
	}
	c.gw.SetToken(tok)
	return true
}

func (c *Controller) commitAnonymous(gen uint64, op, outcome string) error {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	if !c.current(gen) {
		return c.superseded(op)
	}
	c.gw.ClearToken()
	c.setState(AnonymousState(), time.Time{})
	metrics.AuthOperations.WithLabelValues(op, outcome).Inc()
	return nil
}

// clearLocked removes token and user from storage and the header.  Caller
// holds commitMu.
func (c *Controller) clearLocked(ctx context.Context) {
	ctx, cancel := detached(ctx)
	defer cancel()
	if err := c.store.Remove(ctx, KeyToken, KeyUser); err != nil {
		c.log.Error("session clear failed", zap.Error(err))
	}
	c.gw.ClearToken()
}

func (c *Controller) storeUser(ctx context.Context, u api.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	return c.store.Set(ctx, KeyUser, string(b))
}

// detached keeps ctx values but drops its cancellation: a commit already
// made in memory must reach storage after the browser hangs up.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

func (c *Controller) setState(s State, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arrived = s.IsAuthenticated() && (c.arrived || !c.state.IsAuthenticated())
	c.state = s
	c.expiresAt = exp
	c.signalLocked()
}

// Flash queues a notice for the browser's next rendered page.  Pages use
// it to report the outcome of a submit across a redirect.
func (c *Controller) Flash(lvl Level, text string) { c.notify(lvl, text) }

func (c *Controller) notify(lvl Level, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushLocked(lvl, text)
}

func (c *Controller) pushLocked(lvl Level, text string) {
	c.notices = append(c.notices, Notice{Level: lvl, Text: text})
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
}

func (c *Controller) signalLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// decodeUser parses a cached user record; records without an id are
// treated as corrupt.
func decodeUser(raw string) (api.User, bool) {
	var u api.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" {
		return api.User{}, false
	}
	return u, true
}

func isUnverified(err error) bool {
	var ae *api.Error
	return errors.As(err, &ae) && ae.Status == http.StatusForbidden && ae.Message == unverifiedMessage
}
