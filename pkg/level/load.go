package level

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Dump encodings.
const (
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

// ErrUnsupportedFormat is returned for dump files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported level dump format")

// FormatOf returns the dump encoding implied by a file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// IsDumpFile reports whether path has a level dump extension.
func IsDumpFile(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

// Load reads a level dump from disk.
func Load(path string) (*Level, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level dump: %w", err)
	}
	lvl, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lvl.Name == "" {
		lvl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return lvl, nil
}

// Parse decodes a level dump in the given encoding.
func Parse(data []byte, format string) (*Level, error) {
	var lvl Level
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &lvl); err != nil {
			return nil, err
		}
	case FormatCBOR:
		if err := cbor.Unmarshal(data, &lvl); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	lvl.index()
	return &lvl, nil
}

// Encode serializes a level dump in the given encoding.
func Encode(lvl *Level, format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(lvl)
	case FormatCBOR:
		return cbor.Marshal(lvl)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Save writes a level dump, choosing the encoding from the extension.
func Save(lvl *Level, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(lvl, format)
	if err != nil {
		return fmt.Errorf("encoding level dump: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
