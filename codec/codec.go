// Package codec reads and writes the JSON bodies of the HTTP API.
//
// Responses are produced with Marshal. Requests are read with Decode, which
// is strict: a body must hold exactly one document, unknown object keys are
// rejected, and values implementing Validator are checked for required
// fields. Every decoding failure wraps ErrMalformed.
package codec

import (
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is wrapped by every error Decode returns.
var ErrMalformed = errors.New("malformed request body")

// ContentType is the media type of every encoded document.
const ContentType = "application/json"

// Codec encodes responses and strictly decodes requests.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Decode(r io.Reader, v any) error
	Name() string
}

// Validator is implemented by request types that check their own
// completeness once decoded, typically that required fields were present.
type Validator interface {
	Validate() error
}

// ByName returns a built-in codec by its configuration name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

type streamDecoder interface {
	Decode(v any) error
}

// decodeOne reads a single document from dec into v and validates it.
func decodeOne(dec streamDecoder, v any) error {
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrMalformed)
		}
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after document", ErrMalformed)
	}

	if val, ok := v.(Validator); ok {
		if err := val.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	return nil
}
