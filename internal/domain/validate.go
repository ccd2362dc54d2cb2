package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxIdentifierLength is GitHub's limit for user and organization names.
const MaxIdentifierLength = 39

// identifierRe accepts letters, digits and hyphens with an alphanumeric first
// and last character. Consecutive hyphens are rejected separately.
var identifierRe = regexp.MustCompile(`^[A-Za-z\d](?:[A-Za-z\d-]*[A-Za-z\d])?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// RegisterValidation only fails on an empty tag or a builtin name.
	_ = v.RegisterValidation("ghname", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return identifierRe.MatchString(s) && !strings.Contains(s, "--")
	})
	return v
}

// ValidateIdentifier checks a GitHub username or organization name.
func ValidateIdentifier(name string) error {
	if err := validate.Var(name, fmt.Sprintf("required,max=%d,ghname", MaxIdentifierLength)); err != nil {
		return NewValidationError("validate identifier", fmt.Errorf("invalid identifier %q", name))
	}
	return nil
}

// ValidateDate checks that s is a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if err := validate.Var(s, "required,len=10,datetime="+DateLayout); err != nil {
		return NewValidationError("validate date", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s))
	}
	return nil
}
