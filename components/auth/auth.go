// components/auth/auth.go
//
// Authentication component: login, registration, OTP verification, and
// logout pages.
//
// Context
//   Handlers decode and validate the posted form, hand the values to the
//   browser's auth.Controller, and turn the returned Intent into a 303.
//   The controller queues the user-facing notice for every outcome, so a
//   failed submit only re-renders the form; the layout shows the message.
//
//   Entry routes (/login, /register, /verify-otp) sit behind
//   Guard.RedirectAuthenticated, so a signed-in browser never sees them.
//
//------------------------------------------------------------------------------

package auth

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/acl"
	"github.com/yanizio/jobboard/internal/api"
	"github.com/yanizio/jobboard/internal/auth"
	"github.com/yanizio/jobboard/internal/component"
	"github.com/yanizio/jobboard/internal/form"
	"github.com/yanizio/jobboard/internal/requestinfo"
	"github.com/yanizio/jobboard/internal/view"
)

//go:embed templates/*.html
var templates embed.FS

// Name is the component and template namespace.
const Name = "auth"

// Compile-time assertions.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// Component owns the sign-in pages.
type Component struct {
	view  *view.Engine
	guard *acl.Guard
	log   *zap.Logger
}

// New returns an unmounted Component.
func New() *Component { return &Component{} }

func init() { component.Register(New()) }

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string { return Name }

// Init registers the embedded templates.
func (c *Component) Init(d component.Deps) error {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return err
	}
	d.View.Register(Name, sub)
	c.view, c.guard, c.log = d.View, d.Guard, d.Log
	return nil
}

// Routes adds the sign-in pages.
func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(c.guard.RedirectAuthenticated)
		r.Get("/login", c.loginGET)
		r.Post("/login", c.loginPOST)
		r.Get("/register", c.registerGET)
		r.Post("/register", c.registerPOST)
		r.Get("/verify-otp", c.verifyGET)
		r.Post("/verify-otp", c.verifyPOST)
		r.Post("/verify-otp/resend", c.resendPOST)
	})
	r.Post("/logout", c.logoutPOST)
}

/*──────────────────────────── inputs ──────────────────────────────────────*/

type loginInput struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type registerInput struct {
	Name     string `form:"name"             validate:"required,min=2"`
	Email    string `form:"email"            validate:"required,email"`
	Password string `form:"password"         validate:"required,min=6"`
	Confirm  string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type otpInput struct {
	OTP string `form:"otp" validate:"required,len=6,numeric"`
}

// verifyData feeds verify-otp.html.
type verifyData struct {
	Email      string
	ResendWait int // seconds until resend is allowed
}

/*──────────────────────────── login ───────────────────────────────────────*/

func (c *Component) loginGET(w http.ResponseWriter, r *http.Request) {
	c.form(w, r, http.StatusOK, "login", "Login", nil, nil, nil)
}

func (c *Component) loginPOST(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := form.Decode(r, &in); err != nil {
		c.invalid(w, r, "login", "Login", err, map[string]string{"email": r.PostFormValue("email")}, nil)
		return
	}

	ctl := acl.Controller(r)
	intent, err := ctl.Login(r.Context(), api.Credentials{Email: in.Email, Password: in.Password})
	switch {
	case err == nil:
		c.audit(r, in.Email, intent)
		component.Go(w, r, intent)
	case errors.Is(err, auth.ErrVerificationRequired):
		component.Go(w, r, intent)
	case errors.Is(err, auth.ErrLoginInFlight):
		c.form(w, r, http.StatusConflict, "login", "Login",
			form.Invalid(form.ErrorField{Message: "A login is already in progress."}),
			map[string]string{"email": in.Email}, nil)
	default:
		// The controller queued the API message as a notice.
		c.form(w, r, http.StatusUnprocessableEntity, "login", "Login", nil, map[string]string{"email": in.Email}, nil)
	}
}

// audit writes one line per successful sign-in with the device summary.
func (c *Component) audit(r *http.Request, email string, intent auth.Intent) {
	fields := []zap.Field{
		zap.String("email", email),
		zap.String("intent", intent.String()),
	}
	if ri := requestinfo.FromContext(r.Context()); ri != nil {
		fields = append(fields,
			zap.String("device", ri.Summary()),
			zap.String("ip", ri.Geo.IP.String()),
			zap.String("country", ri.Geo.CountryISO),
		)
	}
	c.log.Info("user signed in", fields...)
}

/*──────────────────────────── register ────────────────────────────────────*/

func (c *Component) registerGET(w http.ResponseWriter, r *http.Request) {
	c.form(w, r, http.StatusOK, "register", "Register", nil, nil, nil)
}

func (c *Component) registerPOST(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	echo := func() map[string]string {
		return map[string]string{"name": r.PostFormValue("name"), "email": r.PostFormValue("email")}
	}
	if err := form.Decode(r, &in); err != nil {
		c.invalid(w, r, "register", "Register", err, echo(), nil)
		return
	}

	intent, err := acl.Controller(r).Register(r.Context(), auth.RegisterInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		c.form(w, r, http.StatusUnprocessableEntity, "register", "Register", nil, echo(), nil)
		return
	}
	component.Go(w, r, intent)
}

/*──────────────────────────── verify OTP ──────────────────────────────────*/

func (c *Component) verifyGET(w http.ResponseWriter, r *http.Request) {
	ctl := acl.Controller(r)
	snap := ctl.Snapshot()
	if snap.Pending == nil {
		// Nothing to verify; registration starts the flow.
		component.Go(w, r, auth.IntentRegister)
		return
	}
	c.form(w, r, http.StatusOK, "verify-otp", "Verify OTP", nil, nil, c.verifyData(ctl, snap))
}

func (c *Component) verifyPOST(w http.ResponseWriter, r *http.Request) {
	ctl := acl.Controller(r)
	var in otpInput
	if err := form.Decode(r, &in); err != nil {
		c.invalid(w, r, "verify-otp", "Verify OTP", err, nil, c.verifyData(ctl, ctl.Snapshot()))
		return
	}

	intent, err := ctl.VerifyOTP(r.Context(), in.OTP)
	if err != nil && intent == auth.IntentNone {
		c.form(w, r, http.StatusUnprocessableEntity, "verify-otp", "Verify OTP", nil, nil, c.verifyData(ctl, ctl.Snapshot()))
		return
	}
	component.Go(w, r, intent)
}

func (c *Component) resendPOST(w http.ResponseWriter, r *http.Request) {
	ctl := acl.Controller(r)
	if err := form.Decode(r, &struct{}{}); err != nil {
		c.invalid(w, r, "verify-otp", "Verify OTP", err, nil, c.verifyData(ctl, ctl.Snapshot()))
		return
	}

	intent, err := ctl.ResendOTP(r.Context())
	switch {
	case errors.Is(err, auth.ErrResendTooSoon):
		c.form(w, r, http.StatusTooManyRequests, "verify-otp", "Verify OTP",
			form.Invalid(form.ErrorField{Message: "Please wait before requesting another code."}),
			nil, c.verifyData(ctl, ctl.Snapshot()))
	case intent != auth.IntentNone:
		component.Go(w, r, intent)
	default:
		http.Redirect(w, r, auth.IntentVerifyOTP.Path(), http.StatusSeeOther)
	}
}

func (c *Component) verifyData(ctl *auth.Controller, snap auth.Snapshot) verifyData {
	d := verifyData{ResendWait: int(ctl.ResendWait().Round(time.Second) / time.Second)}
	if snap.Pending != nil {
		d.Email = snap.Pending.Email
	}
	return d
}

/*──────────────────────────── logout ──────────────────────────────────────*/

// logoutPOST is POST-only so a cross-site link cannot sign the user out.
func (c *Component) logoutPOST(w http.ResponseWriter, r *http.Request) {
	if err := form.Decode(r, &struct{}{}); err != nil {
		c.view.Error(w, r, http.StatusForbidden, "Security token invalid.  Please refresh and try again.")
		return
	}
	component.Go(w, r, acl.Controller(r).Logout(r.Context()))
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// form renders a form page.  formErr may be nil.
func (c *Component) form(w http.ResponseWriter, r *http.Request, status int, name, title string,
	formErr error, values map[string]string, data any) {
	st, err := form.NewState(r, formErr, values)
	if err != nil {
		c.view.Error(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}
	component.RenderStatus(w, r, c.view, status, Name, name, view.Page{Title: title, Form: st, Data: data})
}

// invalid re-renders after a Decode failure.
func (c *Component) invalid(w http.ResponseWriter, r *http.Request, name, title string,
	err error, values map[string]string, data any) {
	if !form.IsValidationError(err) {
		c.log.Warn("form parse failed", zap.String("page", name), zap.Error(err))
		err = form.Invalid(form.ErrorField{Message: "The form could not be read.  Please try again."})
	}
	c.form(w, r, http.StatusUnprocessableEntity, name, title, err, values, data)
}
