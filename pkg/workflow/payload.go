package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Validatable is implemented by payloads that check their own schema.
type Validatable interface {
	Validate() error
}

// PayloadAs narrows an untyped command payload to T. It accepts T, *T and
// nil (the zero T); any other type is an invalid payload. When T implements
// Validatable the narrowed value is validated as well.
func PayloadAs[T any](event string, payload any) (T, error) {
	var v T
	switch p := payload.(type) {
	case nil:
	case T:
		v = p
	case *T:
		if p != nil {
			v = *p
		}
	default:
		return v, UnexpectedPayloadType(event, payload)
	}

	if val, ok := any(v).(Validatable); ok {
		if err := val.Validate(); err != nil {
			return v, NewPayloadError(event, err)
		}
	}
	return v, nil
}

// NoPayload rejects anything but an absent payload.
func NoPayload(event string, payload any) error {
	if payload == nil {
		return nil
	}
	if raw, ok := payload.(json.RawMessage); ok && isEmptyJSON(raw) {
		return nil
	}
	return UnexpectedPayloadType(event, payload)
}

// DecodeJSON strictly decodes raw into T: unknown fields and trailing data
// are rejected. Empty input yields the zero T.
func DecodeJSON[T any](event string, raw json.RawMessage) (T, error) {
	var v T
	if isEmptyJSON(raw) {
		return v, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, NewPayloadError(event, err)
	}
	if dec.More() {
		return v, NewPayloadError(event, errors.New("unexpected data after payload"))
	}
	return v, nil
}

// DecodeNone accepts only an empty or null payload.
func DecodeNone(event string, raw json.RawMessage) (any, error) {
	if !isEmptyJSON(raw) {
		return nil, NewPayloadError(event, fmt.Errorf("event takes no payload"))
	}
	return nil, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
