// Package validation checks request structs with go-playground/validator and
// reports failures as a list of per-field messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid request field.
type FieldError struct {
	Value    interface{} `json:"value"`
	Msg      string      `json:"msg"`
	Param    string      `json:"param"`
	Location string      `json:"location"`
}

// Errors is returned when one or more fields are invalid.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Param+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Field builds a FieldError for checks that are not expressed as struct tags.
func Field(param string, value interface{}, msg string) FieldError {
	return FieldError{Value: value, Msg: msg, Param: param, Location: "body"}
}

// messages maps "<json field>.<tag>" to the text shown to API clients.
var messages = map[string]string{
	"username.required":       "Username must be specified.",
	"username.alphanum":       "Username has non-alphanumeric characters.",
	"email.required":          "Email must be specified.",
	"email.email":             "Email must be a valid email address.",
	"password.required":       "Password must be specified.",
	"password.min":            "Password must be 6 characters or greater.",
	"task.required":           "Task must not be empty.",
	"priority.required":       "Priority must be specified.",
	"estimated_time.required": "Estimated time must be a number.",
	"estimated_time.gte":      "Estimated time must not be negative.",
	"created_at.datetime":     "Created at must be a valid date.",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates s. It returns nil, Errors, or the validator's own error
// when s is not a struct.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Field(fe.Field(), fe.Value(), message(fe)))
	}
	return out
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return "Invalid value for " + fe.Field() + "."
}
