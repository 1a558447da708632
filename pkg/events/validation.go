package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the event rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("eventkind", func(fl validator.FieldLevel) bool {
			return Kind(fl.Field().String()).Valid()
		})
	})
	return validate
}

// ValidateEnvelope checks the frame header and the payload size. It does not
// decode the payload.
func ValidateEnvelope(env Envelope) error {
	if !env.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if env.Sender == "" {
		return ErrEmptySender
	}
	if len(env.Payload) > MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	if err := Validator().Struct(env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ValidatePayload applies the struct rules of p. A contribution without an id
// yields ErrMissingID.
func ValidatePayload(p Payload) error {
	if p == nil {
		return ErrMalformed
	}
	if c, ok := p.(Contribution); ok && c.ContributionID() == "" {
		return ErrMissingID
	}
	if _, ok := p.(Join); ok {
		return nil
	}
	if err := Validator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrMalformed, verrs[0].Field())
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ClampVote bounds a vote value to [0,100].
func ClampVote(v float64) float64 {
	return clamp(v, 0, 100)
}

// ClampCoord bounds a map coordinate to [2,98] so markers stay on the surface.
func ClampCoord(v float64) float64 {
	return clamp(v, 2, 98)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
