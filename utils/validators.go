package utils

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
)

// RegisterValidators adds the domain tags to gin's validator:
// `binding:"role"` for known roles, `binding:"moderation_status"` and
// `binding:"price_range"`.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	rules := map[string]validator.Func{
		"role": func(fl validator.FieldLevel) bool {
			return entity.Role(fl.Field().String()).Valid()
		},
		"moderation_status": func(fl validator.FieldLevel) bool {
			return entity.ModerationStatus(fl.Field().String()).Valid()
		},
		"price_range": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || entity.PriceRange(s).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}
