package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/team-task-api/internal/models"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator:
// taskstatus and taskpriority (both case-insensitive). Field names in errors
// use the json tag, or the form tag for query parameters.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			_, err := models.ParseTaskStatus(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
			_, err := models.ParseTaskPriority(fl.Field().String())
			return err == nil
		})
	})
}

// ValidationDetails converts binding errors into field messages.
// It returns nil when err is not a validation error.
func ValidationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = validationMessage(fe)
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "taskstatus":
		return "must be one of TODO, IN_PROGRESS, COMPLETED, ON_HOLD"
	case "taskpriority":
		return "must be one of LOW, MEDIUM, HIGH, URGENT"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
