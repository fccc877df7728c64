// Package dto holds request payloads, their validation rules, and response shapes.
package dto

import (
	"errors"
	"unicode/utf8"

	"account_service/internal/common"

	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Validator is implemented by every request payload.
type Validator interface {
	Validate() error
}

// Check runs v's rules and converts failures into a common.ValidationError.
func Check(v Validator) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return &common.ValidationError{Fields: fields}
}

// required treats the empty string as missing, with a caller supplied message.
func required(message string) validation.Rule {
	return validation.Required.Error(message)
}

// minRunes fails strings shorter than n characters, including the empty string.
func minRunes(n int, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if utf8.RuneCountInString(s) < n {
			return errors.New(message)
		}
		return nil
	})
}

// maxRunes fails strings longer than n characters.
func maxRunes(n int, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if utf8.RuneCountInString(s) > n {
			return errors.New(message)
		}
		return nil
	})
}

func email(message string) validation.Rule {
	return validation.NewStringRule(govalidator.IsEmail, message)
}

// equals fails when the field differs from other, compared as exact strings.
func equals(other, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New(message)
		}
		return nil
	})
}

// intRange checks an optional integer. nil passes; 0 is checked like any other value.
func intRange(min, max int, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		p, _ := value.(*int)
		if p == nil {
			return nil
		}
		if *p < min || (max > 0 && *p > max) {
			return errors.New(message)
		}
		return nil
	})
}
