// Package validation wires go-playground/validator with English translations
// for user-facing input validation messages.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validator validates request and model structs and renders rule violations
// as human-readable English messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with the custom rules registered.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	trans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, errors.New("english translator not found")
	}

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if err := registerUsernameRule(validate, trans); err != nil {
		return nil, err
	}

	if err := registerCurrentYearRule(validate, trans); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Struct validates a struct against its validate tags. Violations are joined
// into a single error message suitable for the response envelope.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Translate(v.trans))
	}

	return errors.New(strings.Join(messages, ", "))
}

// Username validates a candidate username against the account format rules:
// 3 to 30 characters, letters, digits, and underscore only.
func (v *Validator) Username(name string) error {
	return v.Struct(struct {
		Username string `validate:"required,min=3,max=30,username"`
	}{Username: name})
}

func registerUsernameRule(validate *validator.Validate, trans ut.Translator) error {
	err := validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(
		"username",
		trans,
		func(ut ut.Translator) error {
			return ut.Add("username", "{0} may only contain letters, numbers, and underscores", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("username", fe.Field())
			return t
		},
	)
}

func registerCurrentYearRule(validate *validator.Validate, trans ut.Translator) error {
	err := validate.RegisterValidation("lte_current_year", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(time.Now().Year())
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(
		"lte_current_year",
		trans,
		func(ut ut.Translator) error {
			return ut.Add("lte_current_year", "{0} may not be in the future", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("lte_current_year", fe.Field())
			return t
		},
	)
}
