package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotAStruct = errors.New("cannot validate non struct value")
)

// FieldError is a single failed rule, keyed by the wire name of the field.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// FieldErrors holds every failing field of a form, in declaration order.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(lo.Map(e, func(fe FieldError, _ int) string {
		return fe.Field + ": " + fe.Message
	}), "; "))
}

func (e FieldErrors) Unwrap() error {
	return ErrValidation
}

// Get returns the message reported for field.
func (e FieldErrors) Get(field string) (string, bool) {
	fe, ok := lo.Find(e, func(fe FieldError) bool {
		return fe.Field == field
	})
	return fe.Message, ok
}

// Fields returns the names of the failing fields.
func (e FieldErrors) Fields() []string {
	return lo.Map(e, func(fe FieldError, _ int) string {
		return fe.Field
	})
}

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a rule set. now is consulted for age checks, time.Now when nil.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}

	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}

	v.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	lo.Must0(v.validate.RegisterValidation("emailshape", isEmailShape))
	lo.Must0(v.validate.RegisterValidation("strongpassword", isStrongPassword))
	lo.Must0(v.validate.RegisterValidation("mixedpassword", isMixedPassword))
	lo.Must0(v.validate.RegisterValidation("posttext", isPostText))
	lo.Must0(v.validate.RegisterValidation("minage", v.hasMinAge))

	v.validate.RegisterStructValidation(validatePostImage, PostForm{})
	v.validate.RegisterStructValidation(validatePhoto, PhotoForm{})

	return v
}

// Validate checks every rule of form and returns FieldErrors on failure.
func (v *Validator) Validate(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("%w: %T", ErrNotAStruct, form)
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	return FieldErrors(lo.Map(errs, func(fe validator.FieldError, _ int) FieldError {
		return FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		}
	}))
}
