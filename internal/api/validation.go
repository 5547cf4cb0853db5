package api

import (
	"alcyxob/gym-app/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain rules to gin's validator:
//
//	slot     one of the fixed start times ("10:00" ... "18:00")
//	isodate  a YYYY-MM-DD calendar date
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		return domain.IsValidSlot(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	})
}
