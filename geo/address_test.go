package geo

import (
	"context"
	"errors"
	"testing"

	"food-ordering-api/apperr"
)

func TestParserValidate(t *testing.T) {
	p := NewParser()
	addr, err := p.Validate(context.Background(), "12 rue de la Paix, 75002 Paris, France")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if addr.Street != "12 rue de la Paix" || addr.PostalCode != "75002" || addr.City != "Paris" || addr.Country != "France" {
		t.Fatalf("unexpected address %+v", addr)
	}

	addr, err = p.Validate(context.Background(), "1 Main Street, 10001 New York")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if addr.City != "New York" || addr.Country != "" {
		t.Fatalf("unexpected address %+v", addr)
	}
}

func TestParserRejects(t *testing.T) {
	p := NewParser()
	cases := []string{
		"nowhere",
		"12 rue de la Paix, Paris",
		"12 rue de la Paix, ABCDE Paris",
		"a, b, c, d",
	}
	for _, text := range cases {
		_, err := p.Validate(context.Background(), text)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", text, err)
		}
	}
}
