// Package geo turns free-text delivery addresses into structured ones.
package geo

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"food-ordering-api/apperr"
)

// StructuredAddress is a validated postal address
type StructuredAddress struct {
	Street     string `json:"street" validate:"required,min=3"`
	PostalCode string `json:"postal_code" validate:"required,numeric,min=4,max=10"`
	City       string `json:"city" validate:"required"`
	Country    string `json:"country,omitempty" validate:"omitempty,min=2"`
}

// Validator turns free text into a structured address or fails with a validation error
type Validator interface {
	Validate(ctx context.Context, freeText string) (StructuredAddress, error)
}

// Parser is an offline Validator for "<street>, <postal code> <city>[, <country>]"
type Parser struct {
	validate *validator.Validate
}

func NewParser() *Parser {
	return &Parser{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (p *Parser) Validate(_ context.Context, freeText string) (StructuredAddress, error) {
	parts := strings.Split(freeText, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || len(parts) > 3 {
		return StructuredAddress{}, apperr.Validationf("address %q must look like \"street, postal code city[, country]\"", freeText)
	}

	fields := strings.Fields(parts[1])
	if len(fields) < 2 {
		return StructuredAddress{}, apperr.Validationf("address %q is missing a postal code or city", freeText)
	}
	addr := StructuredAddress{
		Street:     parts[0],
		PostalCode: fields[0],
		City:       strings.Join(fields[1:], " "),
	}
	if len(parts) == 3 {
		addr.Country = parts[2]
	}

	if err := p.validate.Struct(addr); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return StructuredAddress{}, apperr.Validationf("address %q: invalid %s", freeText, strings.ToLower(verrs[0].Field()))
		}
		return StructuredAddress{}, apperr.Validationf("address %q: %v", freeText, err)
	}
	return addr, nil
}
