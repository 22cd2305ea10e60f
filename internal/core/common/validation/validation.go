package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/go-playground/validator/v10"
)

var validate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return v
}

// Struct checks the `validate` tags of v and records every failure in errs.
// Keys are the json field path below prefix, so item 0 of a batch reports "0.name" or "0.permissions.1".
func Struct(prefix string, v interface{}, errs internal.FieldErrors) {
	err := validate.Struct(v)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(Key(prefix, "payload"), "The payload is invalid.")
		return
	}

	for _, fe := range fieldErrs {
		field := Key(prefix, fieldPath(fe.Namespace()))
		errs.Add(field, message(field, fe))
	}
}

// Key joins path segments with dots, skipping empty ones.
func Key(parts ...interface{}) string {
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		s := fmt.Sprint(p)
		if s != "" {
			segments = append(segments, s)
		}
	}
	return strings.Join(segments, ".")
}

// fieldPath turns "CreateRoleDTO.permissions[1]" into "permissions.1".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("The %s field must not have more than %s items.", field, fe.Param())
		default:
			return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
		}
	case "min":
		if isEmptyCollection(fe) {
			return fmt.Sprintf("The %s field is required.", field)
		}
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("The %s field must have at least %s items.", field, fe.Param())
		default:
			return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
		}
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

func isEmptyCollection(fe validator.FieldError) bool {
	switch fe.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return reflect.ValueOf(fe.Value()).Len() == 0
	}
	return false
}

func Taken(field string) string {
	return fmt.Sprintf("The %s has already been taken.", field)
}

func Invalid(field string) string {
	return fmt.Sprintf("The selected %s is invalid.", field)
}

func Duplicate(field string) string {
	return fmt.Sprintf("The %s field has a duplicate value.", field)
}

// ----------------- FIELD BUILDER -----------------

// ValidatorFunc returns an error message, or "" when value passes.
type ValidatorFunc func(value interface{}) string

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

// ValidationBuilder validates loose values (query parameters, path segments) that have no DTO.
type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{FieldName: name, Value: value}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return fmt.Sprintf("The %s field is required.", fv.FieldName)
			}
		case []int64:
			if len(v) == 0 {
				return fmt.Sprintf("The %s field is required.", fv.FieldName)
			}
		case nil:
			return fmt.Sprintf("The %s field is required.", fv.FieldName)
		}
		return ""
	})
	return fv
}

// Date requires a string in the given time layout.
func (fv *FieldValidator) Date(layout string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		s, ok := value.(string)
		if !ok || s == "" {
			return ""
		}
		if _, err := time.Parse(layout, s); err != nil {
			return fmt.Sprintf("The %s field must match the format %s.", fv.FieldName, layout)
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) Custom(validator ValidatorFunc) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every rule; the first failing rule per field is reported.
func (v *ValidationBuilder) Validate() *internal.AppError {
	errs := internal.FieldErrors{}
	for _, field := range v.fields {
		for _, rule := range field.Validators {
			if msg := rule(field.Value); msg != "" {
				errs.Add(field.FieldName, msg)
				break
			}
		}
	}
	if errs.Empty() {
		return nil
	}
	return internal.NewValidationError(errs)
}
