package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/spec-kit/asset-registry/internal/domain"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	mustRegister(v, "role", func(s string) bool {
		_, err := domain.ParseRole(s)
		return err == nil
	})
	mustRegister(v, "department", func(s string) bool {
		_, err := domain.ParseDepartment(s)
		return err == nil
	})
	mustRegister(v, "itemtype", func(s string) bool {
		_, err := domain.ParseItemType(s)
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, accept func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return accept(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Validate checks req and returns one message per failing field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError([]string{err.Error()})
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return apperrors.NewValidationError(messages)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "role":
		return field + " must be one of " + joinRoles()
	case "department":
		return field + " must be one of " + joinDepartments()
	case "itemtype":
		return field + " must be one of " + joinItemTypes()
	default:
		return field + " is invalid"
	}
}

func joinRoles() string {
	names := make([]string, 0, 3)
	for _, r := range domain.Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func joinDepartments() string {
	names := make([]string, 0, 2)
	for _, d := range domain.Departments() {
		names = append(names, fmt.Sprintf("%s (%s)", d.Code(), d.DisplayName()))
	}
	return strings.Join(names, ", ")
}

func joinItemTypes() string {
	names := make([]string, 0, 4)
	for _, t := range domain.ItemTypes() {
		names = append(names, fmt.Sprintf("%s (%s)", t.Code(), t.DisplayName()))
	}
	return strings.Join(names, ", ")
}
