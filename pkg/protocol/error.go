package protocol

import "fmt"

// ErrorKind classifies a decode rejection.
type ErrorKind uint8

const (
	// KindMalformed means the bytes were not a JSON object, or a field
	// had the wrong JSON type.
	KindMalformed ErrorKind = iota

	// KindUnknownVariant means the "type" tag named no known variant.
	KindUnknownVariant

	// KindMissingField means a field the variant requires was absent.
	KindMissingField

	// KindPayloadTooLarge means the message or its frame payload exceeded
	// the configured limits.
	KindPayloadTooLarge
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "Malformed"
	case KindUnknownVariant:
		return "UnknownVariant"
	case KindMissingField:
		return "MissingField"
	case KindPayloadTooLarge:
		return "PayloadTooLarge"
	default:
		return "Unknown"
	}
}

// DecodeError reports why Decode rejected a message. It is always local to
// the connection that produced the bytes.
type DecodeError struct {
	Kind   ErrorKind
	Detail string // variant tag, field name, or size description
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("protocol: %s", e.Kind)
	}
	return fmt.Sprintf("protocol: %s: %s", e.Kind, e.Detail)
}

func errMalformed(detail string) *DecodeError {
	return &DecodeError{Kind: KindMalformed, Detail: detail}
}

func errUnknownVariant(tag string) *DecodeError {
	return &DecodeError{Kind: KindUnknownVariant, Detail: tag}
}

func errMissingField(field string) *DecodeError {
	return &DecodeError{Kind: KindMissingField, Detail: field}
}

func errPayloadTooLarge(detail string) *DecodeError {
	return &DecodeError{Kind: KindPayloadTooLarge, Detail: detail}
}
