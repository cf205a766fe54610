package config

import (
	"bytes"
	"errors"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// decodeYAMLStrict decodes a single YAML document into out, rejecting keys that map to no field.
func decodeYAMLStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeTOMLStrict decodes a TOML document into out, rejecting keys that map to no field.
func decodeTOMLStrict(data []byte, out any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}
