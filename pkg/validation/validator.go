package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Init configures the validator used by services and Gin's binding engine.
// - Uses JSON tag names in errors.
// - Registers the password policy tags.
func Init() {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		configure(validate)
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			configure(v)
		}
	})
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nopassword", noPassword)
	v.RegisterAlias("pwd", "min=7,nopassword")
}

// noPassword rejects strings containing "password" in any letter case.
func noPassword(fl validator.FieldLevel) bool {
	return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	Init()
	return validate.Struct(s)
}

// Var validates a single value against tag.
func Var(field any, tag string) error {
	Init()
	return validate.Var(field, tag)
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) {
		return map[string]string{"payload": "invalid json"}
	}
	if errors.As(err, &ute) {
		if ute.Field != "" {
			return map[string]string{ute.Field: "must be a " + ute.Type.String()}
		}
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			field := fe.Field()
			if field == "" {
				field = "value"
			}
			out[field] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	// ActualTag resolves aliases such as pwd to the rule that failed.
	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "nopassword":
		return "must not contain the word 'password'"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", fe.ActualTag(), param)
		}
		return fmt.Sprintf("validation failed for '%s'", fe.ActualTag())
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
