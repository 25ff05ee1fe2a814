package shelf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks a record before it is filed. Whitespace around the
// identifier and title is trimmed in place.
func Validate(rec *BookRecord) error {
	rec.ExternalID = strings.TrimSpace(rec.ExternalID)
	rec.Title = strings.TrimSpace(rec.Title)
	if err := validate.Struct(rec); err != nil {
		return toValidationError(err)
	}
	if rec.Progress != nil {
		if err := checkProgress(*rec.Progress); err != nil {
			return err
		}
	}
	return nil
}

func checkProgress(pct int) error {
	if pct < 0 || pct > 100 {
		return &ValidationError{Field: "progress", Reason: fmt.Sprintf("%d is outside 0-100", pct)}
	}
	return nil
}

func checkRating(n int) error {
	if n < 1 || n > 5 {
		return &ValidationError{Field: "rating", Reason: fmt.Sprintf("%d is outside 1-5", n)}
	}
	return nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "record", Reason: err.Error()}
	}
	fe := fieldErrs[0]
	reason := fe.Tag()
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "max":
		reason = "must be at most " + fe.Param()
	case "min":
		reason = "must be at least " + fe.Param()
	}
	return &ValidationError{Field: fe.Field(), Reason: reason}
}
