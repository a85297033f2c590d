package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/leapstack-labs/petsales/internal/export"
	"github.com/leapstack-labs/petsales/internal/source"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their config key.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("delimiter", func(fl validator.FieldLevel) bool {
		_, err := export.ParseDelimiter(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints, then that the source kind is registered
// and has the locator (path or DSN) its backend reads from.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	backend, ok := source.Lookup(c.Source.Kind)
	if !ok {
		return &source.UnknownReaderError{Kind: c.Source.Kind, Available: source.ListKinds()}
	}
	if err := backend.CheckConfig(c.Source.Reader()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Delimiter returns the configured delimiter as a rune.
func (c *Config) Delimiter() (rune, error) {
	return export.ParseDelimiter(c.Output.Delimiter)
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.source.kind"; drop the struct name.
	key := fe.Namespace()
	if i := strings.IndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "delimiter":
		return fmt.Sprintf("%s must be a single character or \"tab\", got %q", key, fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
