package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and runs struct validation. A malformed
// body yields errBadRequestBody; constraint failures yield a field map keyed by
// the JSON path of each offending field.
func decodeJSON(r *http.Request, dst any) (map[string]string, error) {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fieldErrors(fieldErrs), nil
		}
		return nil, err
	}
	return nil, nil
}

func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fieldPath(fe.Namespace())] = tagMessage(fe)
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio."
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Se admiten como máximo %s elementos.", fe.Param())
		}
		return fmt.Sprintf("Se admiten como máximo %s caracteres.", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Se requieren al menos %s elementos.", fe.Param())
		}
		return fmt.Sprintf("Se requieren al menos %s caracteres.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Valores permitidos: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "numeric":
		return "Solo se admiten dígitos."
	default:
		return "El valor no es válido."
	}
}
