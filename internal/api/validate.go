package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"vault/internal/access"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the `validate` tags of a request DTO and reports the
// failures as one ValidationError naming the first field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return access.Invalid("body", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field, param := fe.Field(), fe.Param()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must be at least "+param+" characters")
		case "max":
			msgs = append(msgs, field+" must be at most "+param+" characters")
		case "oneof":
			msgs = append(msgs, field+" must be one of "+param)
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "required_without":
			msgs = append(msgs, field+" is required when "+param+" is empty")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return access.Invalid(verrs[0].Field(), strings.Join(msgs, ", "))
}
