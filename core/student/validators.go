package student

import (
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	genderTag  = "gender"
	genderText = "gender must be one of: " + strings.Join(Genders, ", ")

	sortedGenders = sortGenders()
)

func sortGenders() []string {
	genders := append([]string(nil), Genders...)
	sort.Strings(genders)
	return genders
}

// InitValidators registers the student validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(genderTag, genderValidation)
	core.RegisterCustomTranslation(validate, translator, genderTag, genderText)
}

// Custom Validators

// genderValidation checks that the provided gender is in Genders
func genderValidation(fl validator.FieldLevel) bool {
	gender, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	idx := sort.SearchStrings(sortedGenders, gender)
	return idx < len(sortedGenders) && sortedGenders[idx] == gender
}
