package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/royalty/backend/internal/domain/shared/valueobject"
	"github.com/royalty/backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator registers field naming and the custom tags used by request DTOs.
// Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
			_, err := valueobject.ParseCurrency(fl.Field().String())
			return err == nil
		})
	})
}

// fieldName reports fields by their json name, or form name for query params
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// HandleValidationError writes a 400 listing each failed field.
// Bind errors that are not field failures (bad JSON, wrong types) carry no details.
func HandleValidationError(c *gin.Context, err error) {
	var details []dto.ValidationDetail
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details = make([]dto.ValidationDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe)})
		}
	}
	c.JSON(http.StatusBadRequest,
		dto.NewValidationErrorResponse("Request validation failed", GetRequestID(c), details))
}

var boundMessages = map[string]string{
	"gte": "Must be greater than or equal to ",
	"lte": "Must be less than or equal to ",
	"gt":  "Must be greater than ",
	"lt":  "Must be less than ",
}

func validationMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch tag := fe.Tag(); tag {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "currency_code":
		return "Unknown ISO 4217 currency code"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	case "min", "max":
		word := "least"
		if tag == "max" {
			word = "most"
		}
		msg := "Must be at " + word + " " + fe.Param()
		if isString {
			msg += " characters"
		}
		return msg
	default:
		if prefix, ok := boundMessages[tag]; ok {
			return prefix + fe.Param()
		}
		return "Invalid value"
	}
}
