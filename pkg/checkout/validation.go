// Package checkout holds the structural checks applied to a checkout request
// before any stock or persistence work is attempted.
package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]{10,}$`)
)

// Contact carries the customer and shipping fields of a checkout request.
type Contact struct {
	FullName        string  `json:"full_name" validate:"required"`
	Email           string  `json:"email" validate:"required,shopper_email"`
	Phone           string  `json:"phone" validate:"required,shopper_phone"`
	ShippingAddress string  `json:"shipping_address" validate:"required"`
	City            string  `json:"city" validate:"required"`
	PostalCode      string  `json:"postal_code" validate:"required"`
	Notes           *string `json:"notes,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (c Contact) Normalized() Contact {
	out := Contact{
		FullName:        strings.TrimSpace(c.FullName),
		Email:           strings.TrimSpace(c.Email),
		Phone:           strings.TrimSpace(c.Phone),
		ShippingAddress: strings.TrimSpace(c.ShippingAddress),
		City:            strings.TrimSpace(c.City),
		PostalCode:      strings.TrimSpace(c.PostalCode),
	}
	if c.Notes != nil {
		if notes := strings.TrimSpace(*c.Notes); notes != "" {
			out.Notes = &notes
		}
	}
	return out
}

var messages = map[string]map[string]string{
	"full_name":        {"required": "Full name is required"},
	"email":            {"required": "Email is required", "shopper_email": "Please enter a valid email address"},
	"phone":            {"required": "Phone number is required", "shopper_phone": "Please enter a valid phone number"},
	"shipping_address": {"required": "Shipping address is required"},
	"city":             {"required": "City is required"},
	"postal_code":      {"required": "Postal code is required"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("shopper_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("shopper_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// IsEmail reports whether value has the shape of an email address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

// ValidateContact checks the normalized contact fields and returns a
// VALIDATION_ERROR whose details map each failing field to its message.
func ValidateContact(c Contact) error {
	err := validate.Struct(c.Normalized())
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout details")
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := messages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "is invalid"
		}
		details[fe.Field()] = msg
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "please correct the highlighted fields").WithDetails(details)
}
