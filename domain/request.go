package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// UserFields is the client-writable part of a user, used as the request
// body of create and full update and as the document patches operate on.
type UserFields struct {
	Name string `json:"name" validate:"required,max=255"`
	Info string `json:"info"`
}

// Validate checks the fields and reports the first violation.
func (f UserFields) Validate() error {
	return validateStruct(f)
}

// DecodeUserFields reads a create or full update body.
func DecodeUserFields(body []byte) (UserFields, error) {
	fields := UserFields{}
	if len(bytes.TrimSpace(body)) == 0 {
		return fields, &ValidationError{Message: "request body is empty"}
	}
	err := json.Unmarshal(body, &fields)
	if err != nil {
		return fields, decodeError(err)
	}
	fields.Name = strings.TrimSpace(fields.Name)
	err = fields.Validate()
	if err != nil {
		return fields, err
	}
	return fields, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Field: typeErr.Field, Message: fmt.Sprintf("expected %s", typeErr.Type)}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &ValidationError{Message: "request body is truncated"}
	}
	return &ValidationError{Message: fmt.Sprintf("malformed JSON: %s", err.Error())}
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fieldError := fieldErrors[0]
		return &ValidationError{Field: fieldError.Field(), Message: validationMessage(fieldError)}
	}
	return &ValidationError{Message: err.Error()}
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldError.Param())
	default:
		return fmt.Sprintf("failed on %s", fieldError.Tag())
	}
}
