package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkurilenko/walletd/internal/models"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("walletnumber", validateWalletNumber)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// validateWalletNumber accepts fixed-length numeric wallet numbers only
func validateWalletNumber(fl validator.FieldLevel) bool {
	number := fl.Field().String()

	if len(number) != models.WalletNumberLength {
		return false
	}

	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}

	return true
}
