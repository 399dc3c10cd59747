package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// OK writes a success envelope.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message})
}

// AbortFail writes a failure envelope and stops the handler chain.
func AbortFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// Invalid writes a 400 envelope describing why binding err rejected the request.
func Invalid(c *gin.Context, status int, err error) {
	c.JSON(status, Response{
		Success: false,
		Message: "Validation failed",
		Errors:  FieldErrors(err),
	})
}

// FieldErrors converts a binding error into per-field messages.
// Errors that are not validator errors (malformed JSON) become a single "body" entry.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: "Request body must be valid JSON"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please provide a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// UseJSONFieldNames makes validator report fields by their json tag ("email")
// instead of the Go field name ("Email").
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}
