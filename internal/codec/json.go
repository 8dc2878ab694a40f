package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"sensemaker/internal/domain"
)

// JSONCodec handles JSON bundles
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a bundle from JSON. Unknown fields are rejected.
func (c *JSONCodec) Parse(r io.Reader) (*domain.AppletConfigInput, error) {
	var in domain.AppletConfigInput
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &in, nil
}

// Export writes v as indented JSON
func (c *JSONCodec) Export(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
