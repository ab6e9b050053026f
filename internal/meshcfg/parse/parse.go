package parse

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	v1 "github.com/meshup-dev/meshup/internal/meshcfg/schema/v1"
	"gopkg.in/yaml.v3"
)

func File(path string) (v1.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return v1.Config{}, fmt.Errorf("read config: %w", err)
	}
	return Bytes(b, filepath.Base(path))
}

func Bytes(b []byte, name string) (v1.Config, error) {
	var cfg v1.Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return v1.Config{}, fmt.Errorf("parse yaml (%s): %w", name, err)
	}
	return cfg, nil
}
