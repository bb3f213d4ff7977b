// Package loginform is the client-side login form model: field state,
// validation predicates and the gate on submission. Rendering is left to the UI.
package loginform

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

var ErrSubmitDisabled = errors.New("submit is disabled")

// Credentials are handed to the submit callback and never persisted.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SubmitFunc performs the login; the form never talks to the network itself.
type SubmitFunc func(ctx context.Context, credentials Credentials) error

// Form holds the fields as typed. It is not safe for concurrent use.
type Form struct {
	email    string
	password string
	submit   SubmitFunc
	validate *validator.Validate
}

func New(submit SubmitFunc) *Form {
	validate := validator.New()

	// Report failures by their JSON field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Form{submit: submit, validate: validate}
}

// Change updates a single field, as a keystroke would.
func (f *Form) Change(name, value string) error {
	switch name {
	case FieldEmail:
		f.email = value
	case FieldPassword:
		f.password = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

func (f *Form) Credentials() Credentials {
	return Credentials{Email: f.email, Password: f.password}
}

// EmailError reports whether the email is not email shaped.
func (f *Form) EmailError() bool {
	return f.fieldErrors()[FieldEmail]
}

// PasswordError reports whether the password is empty.
func (f *Form) PasswordError() bool {
	return f.fieldErrors()[FieldPassword]
}

func (f *Form) SubmitDisabled(loading bool) bool {
	return f.EmailError() || f.PasswordError() || loading
}

// Submit hands the current credentials to the submit callback, unless
// submission is disabled.
func (f *Form) Submit(ctx context.Context, loading bool) error {
	if f.SubmitDisabled(loading) {
		return ErrSubmitDisabled
	}
	if f.submit == nil {
		return nil
	}
	return f.submit(ctx, f.Credentials())
}

func (f *Form) fieldErrors() map[string]bool {
	failed := map[string]bool{}
	err := f.validate.Struct(f.Credentials())
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			failed[fe.Field()] = true
		}
	}
	return failed
}
