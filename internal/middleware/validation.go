package middleware

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/moderator/internal/pkg/validation"
)

var registerOnce sync.Once

// RegisterValidators installs the custom validation tags on gin's binding engine.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := validation.RegisterCustomRules(v); err != nil {
				panic(err)
			}
		}
	})
}
