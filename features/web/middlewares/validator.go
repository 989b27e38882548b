package middlewares

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

type Validator struct {
	validator *validator.Validate
}

// Validate reports every failing field as "field: tag" in one error.
func (v *Validator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	msgs := lo.Map(errs, func(fe validator.FieldError, _ int) string {
		if fe.Param() != "" {
			return fe.Field() + ": " + fe.Tag() + "=" + fe.Param()
		}
		return fe.Field() + ": " + fe.Tag()
	})
	return errors.New(strings.Join(msgs, ", "))
}

func ConfigureValidator(e *echo.Echo) {
	e.Validator = &Validator{validator: validator.New(validator.WithRequiredStructEnabled())}
}
