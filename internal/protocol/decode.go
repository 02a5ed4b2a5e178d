package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nimred/encounter/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseEnvelope decodes a raw client frame into its envelope.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: malformed envelope: %v", domain.ErrInvalidInput, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: envelope missing type", domain.ErrInvalidInput)
	}
	return env, nil
}

// Decode unmarshals an envelope payload into the given request shape and runs
// its validation rules. Any failure maps to domain.ErrInvalidInput so the
// caller can treat malformed and rule-breaking payloads uniformly.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := validate.Struct(v); err != nil {
		return v, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return v, nil
}
