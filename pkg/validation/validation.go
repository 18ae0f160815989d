// Package validation wraps go-playground/validator with field names taken
// from json tags, so messages name fields the way clients send them.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	dErrors "refeera/pkg/domain-errors"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return instance
}

// Struct validates v against its `validate` tags. The first failing field
// becomes a CodeInvalidInput error reading "Invalid value for <field>".
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "Invalid value for "+verrs[0].Field())
	}
	return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request")
}
