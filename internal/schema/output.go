package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/metaschema/internal/errs"
)

// Format is a schema document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errs.Newf(errs.ErrKindInvalidInput, "unknown schema format %q", s)
}

// FormatFor infers the format from a file extension, defaulting to YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ToYAML encodes the schema as YAML. Output is stable for a given schema.
func (s *Schema) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "encoding schema yaml", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "encoding schema yaml", err)
	}
	return buf.Bytes(), nil
}

// ToJSON encodes the schema as indented JSON.
func (s *Schema) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "encoding schema json", err)
	}
	return append(data, '\n'), nil
}

// Encode encodes the schema in format f.
func (s *Schema) Encode(f Format) ([]byte, error) {
	if f == FormatJSON {
		return s.ToJSON()
	}
	return s.ToYAML()
}

// WriteFile writes the schema to path in the format implied by its extension.
func (s *Schema) WriteFile(path string) error {
	data, err := s.Encode(FormatFor(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("creating %s", dir), err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("writing %s", path), err)
	}
	return nil
}

// Decode parses a schema document previously produced by Encode.
func Decode(data []byte, f Format) (*Schema, error) {
	s := &Schema{}
	var err error
	if f == FormatJSON {
		err = json.Unmarshal(data, s)
	} else {
		err = yaml.Unmarshal(data, s)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "decoding schema", err)
	}
	return s, nil
}

// ReadFile loads a schema document from path.
func ReadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("schema file %s", path), err)
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("reading %s", path), err)
	}
	return Decode(data, FormatFor(path))
}
