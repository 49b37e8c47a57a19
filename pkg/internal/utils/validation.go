package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateStruct runs the validator tags over a config struct and folds
// every violation into a single error. Field names in the message use the
// mapstructure tag when present, so the text matches the keys users write
// in rambo.yaml and the RAMBO_* environment names.
func ValidateStruct(s interface{}) error {
	if s == nil {
		return errors.New("invalid validation: input is nil")
	}

	err := validator.New().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid validation: %v", err)
	}

	typ := reflect.TypeOf(s)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	msgs := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		name := ve.Field()
		if field, ok := typ.FieldByName(name); ok {
			if tag := field.Tag.Get("mapstructure"); tag != "" {
				name = tag
			}
		}
		msgs = append(msgs, fmt.Sprintf("%s is required or invalid. %v", name, ve.Error()))
	}
	return errors.New(strings.Join(msgs, ", "))
}
