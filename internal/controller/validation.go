package controller

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// custom validation tags
const (
	clockTag = "clock"
	cefrTag  = "cefr"
)

var (
	registerOnce sync.Once
	translator   ut.Translator
)

// registerValidators teaches gin's validator the custom tags and makes field
// errors use JSON names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_en := en.New()
		uni := ut.New(_en, _en)
		translator, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, translator)

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation(clockTag, clockValidation)
		_ = v.RegisterValidation(cefrTag, cefrValidation)

		registerFn := func(ut.Translator) error { return nil }
		for _, tag := range []string{clockTag, cefrTag} {
			_ = v.RegisterTranslation(tag, translator, registerFn, translateCustomErrs)
		}
	})
}

func translateCustomErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case clockTag:
		return fe.Field() + " must be a time of day in HH:MM format"
	case cefrTag:
		return fe.Field() + " must be one of A1, A2, B1, B2, C1, C2"
	default:
		return ""
	}
}

// clockValidation accepts "HH:MM" and "HH:MM:SS"
func clockValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := model.ParseClockTime(s)
	return err == nil
}

func cefrValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && model.Level(s).IsValid()
}

// validationMessage renders binding errors for the client.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || translator == nil {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return strings.Join(msgs, "; ")
}
