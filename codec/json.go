package codec

import (
	"encoding/json"
	"io"
)

// JSON is backed by encoding/json and accepts the same documents as GoJSON.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Decode reads one document from r, rejecting unknown fields.
func (JSON) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return decodeOne(dec, v)
}

func (JSON) Name() string { return "json" }
