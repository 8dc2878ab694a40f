// Package codec reads applet bundles and writes registrations in the
// supported text formats.
package codec

import (
	"io"
	"path/filepath"
	"strings"

	"sensemaker/internal/domain"
)

// Importer parses an applet bundle
type Importer interface {
	Parse(r io.Reader) (*domain.AppletConfigInput, error)
	Format() string
}

// Exporter writes any value in its format
type Exporter interface {
	Export(v any, w io.Writer) error
	Format() string
}

// Codec both parses bundles and exports values.
type Codec interface {
	Importer
	Exporter
}

// ForFile picks a codec by file extension. ok is false for other files.
func ForFile(name string) (c Codec, ok bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return NewYAMLCodec(), true
	case ".json":
		return NewJSONCodec(), true
	}
	return nil, false
}

// ForContentType picks a codec by media type, defaulting to JSON.
func ForContentType(contentType string) Codec {
	mt, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(strings.ToLower(mt)) {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return NewYAMLCodec()
	}
	return NewJSONCodec()
}
