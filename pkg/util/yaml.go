package util

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ReadYAMLFile decodes the YAML file at path into dst. Unknown fields are an
// error. An empty file leaves dst untouched.
func ReadYAMLFile(fs afero.Fs, path string, dst interface{}) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(dst); err != nil && err != io.EOF {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
