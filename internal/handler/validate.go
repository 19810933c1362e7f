package handler

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the isodate rule (YYYY-MM-DD) to gin's binding
// validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
				_, err := time.Parse("2006-01-02", fl.Field().String())
				return err == nil
			})
		}
	})
}
