package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	phonePattern    = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)
	regionPattern   = regexp.MustCompile(`^[\p{L}][\p{L} .'-]{0,99}$`)
	emailPattern    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("phone", validatePhone)
	_ = validate.RegisterValidation("username", validateUsername)
	_ = validate.RegisterValidation("region", validateRegion)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidationDetails flattens validator errors into field -> rule pairs for API responses.
func ValidationDetails(err error) map[string]any {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	details := make(map[string]any, len(validationErrors))
	for _, fe := range validationErrors {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		details[toSnake(fe.Field())] = rule
	}
	return details
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

func validateRegion(fl validator.FieldLevel) bool {
	return regionPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	return emailPattern.MatchString(email)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
