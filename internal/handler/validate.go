package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

const (
	notBlankTag = "notblank"
	languageTag = "language"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names, not Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(languageTag, supportedLanguage)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, languageTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " is required"
	case languageTag:
		return fe.Field() + " must be one of english, bodo, mizo"
	default:
		return fe.Field() + " is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func supportedLanguage(fl validator.FieldLevel) bool {
	_, ok := model.ParseLanguage(fl.Field().String())
	return ok
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Field failures come back as a VALIDATION_ERROR whose details map field to message.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apperrors.ValidationError("Invalid request body").WithCause(err)
		}

		details := make(map[string]string, len(fieldErrs))
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msg := fe.Translate(translator)
			details[fe.Field()] = msg
			messages = append(messages, msg)
		}
		return apperrors.ValidationError(strings.Join(messages, "; ")).WithDetails(details)
	}
	return nil
}
