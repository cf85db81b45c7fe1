// Package validate performs the client-side checks that must pass before
// any request is sent: email, password, phone and pincode formats.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phoneRe   = regexp.MustCompile(`^[0-9]{10}$`)

	weekdays = map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
)

// Errors maps JSON field names to a message suitable for inline display.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
			return Pincode(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return Phone(fl.Field().String())
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return Password(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			return weekdays[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
		})
		instance = v
	})
	return instance
}

// Struct validates v using its `validate` tags. It returns Errors on
// failed rules and a plain error for unusable input.
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "pincode":
		return "must be a 6 digit pincode"
	case "phone":
		return "must be a 10 digit phone number"
	case "password":
		if err := Password(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
		return "is not a valid password"
	case "weekday":
		return "must be a day of the week"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// Pincode reports whether s is a 6 digit postal code not starting with 0.
func Pincode(s string) bool { return pincodeRe.MatchString(s) }

// Phone reports whether s is a 10 digit phone number.
func Phone(s string) bool { return phoneRe.MatchString(s) }

// Password requires at least 8 characters with upper and lower case
// letters, a digit and a symbol.
func Password(s string) error {
	if len(s) < 8 {
		return errors.New("must contain at least 8 characters")
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return errors.New("must mix upper and lower case letters, a digit and a symbol")
	}
	return nil
}
