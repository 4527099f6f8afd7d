package codec

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// GoJSON is backed by github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// Decode reads one document from r, rejecting unknown fields.
func (GoJSON) Decode(r io.Reader, v any) error {
	dec := gojson.NewDecoder(r)
	dec.DisallowUnknownFields()
	return decodeOne(dec, v)
}

func (GoJSON) Name() string { return "go-json" }
