// Package validation checks request DTOs against a declarative table of rules.
// Each DTO lists its rules; one validator evaluates them all.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
)

// Rule binds one field value to a validator tag expression. Other is the comparison
// value for the cross-field tags eqfield and nefield.
//
// Recognised tags: required, omitempty, min, max, len, email, url, oneof,
// pattern=<name> (see Patterns), eqfield, nefield.
type Rule struct {
	Field   string
	Value   any
	Tag     string
	Other   any
	Message string
}

// Validatable is implemented by every request DTO
type Validatable interface {
	Rules() []Rule
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pattern", func(fl validator.FieldLevel) bool {
		p, ok := Patterns[fl.Param()]
		if !ok {
			return false
		}
		return p.Match(fl.Field().String())
	})
	return &Validator{validate: v}
}

var defaultValidator = New()

// Validate checks dto with the package validator
func Validate(dto Validatable) error {
	return defaultValidator.Validate(dto)
}

// Validate evaluates every rule and returns a Validation error carrying one message per failing field
func (v *Validator) Validate(dto Validatable) error {
	fields := map[string]string{}
	for _, rule := range dto.Rules() {
		if _, seen := fields[rule.Field]; seen {
			continue
		}
		if msg := v.check(rule); msg != "" {
			fields[rule.Field] = msg
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperrors.Validation("Validation failed", fields)
}

func (v *Validator) check(rule Rule) string {
	var err error
	if rule.Other != nil {
		err = v.validate.VarWithValue(rule.Value, rule.Other, rule.Tag)
	} else {
		err = v.validate.Var(rule.Value, rule.Tag)
	}
	if err == nil {
		return ""
	}
	if rule.Message != "" {
		return rule.Message
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return fmt.Sprintf("%s is invalid", rule.Field)
	}
	return describe(rule.Field, validationErrors[0])
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(fe.Param()), ", "))
	case "pattern":
		if p, ok := Patterns[fe.Param()]; ok {
			return fmt.Sprintf("%s %s", field, p.Description)
		}
	case "eqfield":
		return fmt.Sprintf("%s does not match", field)
	case "nefield":
		return fmt.Sprintf("%s must be different", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
