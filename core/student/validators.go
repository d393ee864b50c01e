package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

var (
	scoreKindTag  = "scorekind"
	scoreKindText = "invalid test score kind"
)

// InitValidators registers student validators on the shared validator instance.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(scoreKindTag, scoreKindValidation)
	core.RegisterCustomTranslation(validate, translator, scoreKindTag, scoreKindText)
}

func scoreKindValidation(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	for _, k := range AllScoreKinds {
		if kind == k {
			return true
		}
	}
	return false
}
