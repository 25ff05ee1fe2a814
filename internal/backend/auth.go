package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/five82/drift/internal/session"
	"github.com/five82/drift/internal/shelf"
)

// Registration is the input to Register.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// Credentials is the input to Login. Username may also be an email address.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	validate        = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Register creates an account and returns the signed-in session.
func (c *Client) Register(ctx context.Context, reg Registration) (session.Session, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := checkInput(reg); err != nil {
		return session.Session{}, err
	}
	sess, err := c.authenticate(ctx, "register", "/api/v1/register", reg)
	if statusOf(err) == http.StatusConflict {
		return session.Session{}, fmt.Errorf("register %s: %w", reg.Username, ErrUserExists)
	}
	return sess, err
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (session.Session, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := checkInput(creds); err != nil {
		return session.Session{}, err
	}
	return c.authenticate(ctx, "login", "/api/v1/login", creds)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (session.Session, error) {
	var payload authResponse
	if err := c.do(ctx, request{op: op, method: http.MethodPost, path: path, body: body}, &payload); err != nil {
		return session.Session{}, err
	}
	sess := session.Session{Token: payload.AccessToken, User: payload.User}
	if !sess.Valid() {
		return session.Session{}, &NetworkError{Op: op, Err: fmt.Errorf("response carried no token or user")}
	}
	return sess, nil
}

func checkInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &shelf.ValidationError{Field: "input", Reason: err.Error()}
	}
	fe := fieldErrs[0]
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "min":
		reason = "must be at least " + fe.Param() + " characters"
	case "max":
		reason = "must be at most " + fe.Param() + " characters"
	case "email":
		reason = "must be a valid email address"
	case "username":
		reason = "may only contain letters, numbers and underscores"
	default:
		reason = "failed " + fe.Tag()
	}
	return &shelf.ValidationError{Field: fe.Field(), Reason: reason}
}
