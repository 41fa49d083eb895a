package handlers

import (
	"log"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/ledger"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Println("[HTTP] [WARN] binding engine is not go-playground/validator; custom rules skipped")
			return
		}
		if err := v.RegisterValidation("usphone", func(fl validator.FieldLevel) bool {
			return ledger.ValidPhone(fl.Field().String())
		}); err != nil {
			log.Println("[HTTP] [ERROR] register usphone validator:", err)
		}
	})
}
