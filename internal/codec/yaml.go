package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"sensemaker/internal/domain"
)

// YAMLCodec handles YAML bundles
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a bundle from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.AppletConfigInput, error) {
	var in domain.AppletConfigInput
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &in, nil
}

// Export writes v as YAML
func (c *YAMLCodec) Export(v any, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
