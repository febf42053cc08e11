package model

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("future_or_today", validateFutureOrToday)
	}
}

// validateFutureOrToday rejects appointment dates in the past. Comparison is
// by calendar date, so a booking for later today passes.
func validateFutureOrToday(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.Format("2006-01-02") >= time.Now().Format("2006-01-02")
}
