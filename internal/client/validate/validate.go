// Package validate checks user input before it reaches a synchronizer.
// Failures are reported as ValidationErrors, which match
// common.ErrValidation under errors.Is.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

func (v ValidationErrors) Unwrap() error { return common.ErrValidation }

// SignUp is the input of account registration.
type SignUp struct {
	Email    string      `validate:"required,email"`
	Password string      `validate:"required,min=6"`
	Name     string      `validate:"required"`
	Role     models.Role `validate:"required,oneof=tourist seller"`
}

// SignIn is the input of a login attempt.
type SignIn struct {
	Email    string      `validate:"required,email"`
	Password string      `validate:"required"`
	Role     models.Role `validate:"required,oneof=tourist seller"`
}

var (
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
	phoneRe    = regexp.MustCompile(`^\+?[0-9]{10,13}$`)

	plain = validator.New()
)

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(storeProfileRules, models.StoreProfile{})
	return &Validator{validate: v}
}

// storeProfileRules checks that the PIX key is well formed for its type.
func storeProfileRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(models.StoreProfile)
	if s.PixKey == "" || s.PixKeyType == "" {
		return
	}
	if !ValidPixKey(s.PixKey, s.PixKeyType) {
		sl.ReportError(s.PixKey, "PixKey", "PixKey", "pix_key", string(s.PixKeyType))
	}
}

// ValidPixKey reports whether key is a plausible PIX key of type kt.
func ValidPixKey(key string, kt models.PixKeyType) bool {
	switch kt {
	case models.PixCPF:
		return len(key) == 11 && digitsOnly.MatchString(key)
	case models.PixCNPJ:
		return len(key) == 14 && digitsOnly.MatchString(key)
	case models.PixEmail:
		return plain.Var(key, "email") == nil
	case models.PixPhone:
		return phoneRe.MatchString(key)
	case models.PixRandom:
		_, err := uuid.Parse(key)
		return err == nil
	default:
		return false
	}
}

// Struct validates any tagged struct.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

func (v *Validator) Plan(p models.Plan) error { return v.Struct(p) }

// PlanPatch validates the patch against the plan it will be applied to, so
// date ordering is checked on the resulting plan.
func (v *Validator) PlanPatch(current models.Plan, patch models.PlanPatch) error {
	if err := v.Struct(patch); err != nil {
		return err
	}
	return v.Struct(patch.Apply(current))
}

func (v *Validator) Product(p models.SellerProduct) error { return v.Struct(p) }

func (v *Validator) ProductPatch(patch models.ProductPatch) error { return v.Struct(patch) }

func (v *Validator) Store(s models.StoreProfile) error { return v.Struct(s) }

func (v *Validator) SignUp(in SignUp) error { return v.Struct(in) }

func (v *Validator) SignIn(in SignIn) error { return v.Struct(in) }

func translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "required_with":
			message = fmt.Sprintf("%s is required when %s is set", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "min":
			if err.Kind() == reflect.Slice {
				message = fmt.Sprintf("%s must have at least %s item(s)", err.Field(), err.Param())
			} else {
				message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
			}
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gtefield":
			message = fmt.Sprintf("%s must not be before %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "pix_key":
			message = fmt.Sprintf("%s is not a valid %s key", err.Field(), err.Param())
		}

		out = append(out, ValidationError{Field: err.Field(), Message: message})
	}

	return out
}
