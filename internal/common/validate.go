package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeAndValidate decodes the request body into dst and runs struct
// validation. The returned error is an AppError ready for RenderError.
func DecodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return NewAppError("INVALID_BODY", "request body is not valid JSON", http.StatusBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		appErr := NewAppError("VALIDATION_FAILED", "request validation failed", http.StatusUnprocessableEntity, err)
		appErr.Details = validationDetails(err)
		return appErr
	}
	return nil
}

func validationDetails(err error) any {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}
