package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// FieldErrors maps a JSON field name to a human readable validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, e[field])
	}

	return strings.Join(msgs, "; ")
}

// Validator validates request payloads using struct tags and translates failures to English.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	// Registration only fails for unknown tags, the default set is always known.
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	return &Validator{
		validate:   validate,
		translator: translator,
	}
}

// Struct validates s and returns FieldErrors when any field is invalid.
func (v *Validator) Struct(s any) error {
	return v.translate(v.validate.Struct(s))
}

// Var validates a single value against tag, e.g. "required,email".
func (v *Validator) Var(field any, tag string) error {
	return v.translate(v.validate.Var(field, tag))
}

func (v *Validator) translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrs := make(FieldErrors, len(validationErrs))
	for _, fe := range validationErrs {
		key := fe.Field()
		if ns := fe.Namespace(); strings.Contains(ns, ".") {
			key = ns[strings.Index(ns, ".")+1:]
		}
		if key == "" {
			key = "value"
		}
		fieldErrs[key] = fe.Translate(v.translator)
	}

	return fieldErrs
}
