package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo. Field names in
// messages use their JSON names.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the JSON tag name function.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// bind decodes query parameters and body into dst and validates it. Read
// routes accept ids in either place.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errors.New("invalid request body")
	}
	return validate(c, dst)
}

// bindStrict decodes a JSON body, rejecting keys dst does not declare, and
// validates it. Edit routes use it so only listed fields can change.
func bindStrict(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		if strings.HasPrefix(err.Error(), "json: unknown field ") {
			return fmt.Errorf("field %s cannot be updated", strings.TrimPrefix(err.Error(), "json: unknown field "))
		}
		return errors.New("invalid request body")
	}
	return validate(c, dst)
}

func validate(c echo.Context, dst any) error {
	err := c.Validate(dst)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "notblank":
		return fe.Field() + " must not be blank"
	case "mongodb":
		return fe.Field() + " must be a 24 character hex id"
	case "email":
		return fe.Field() + " must be an email address"
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "numeric":
		return fe.Field() + " must be numeric"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fe.Field() + " is invalid"
}
