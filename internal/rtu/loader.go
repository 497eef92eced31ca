package rtu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Generate reads the topology file at path, decodes it and validates it.
//
// It is called once at startup and again on an explicit reset. A failure
// here at startup is fatal for the process.
func Generate(path string, logger Logger) (*RTU, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading rtu config: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := Validate(r, logger); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse decodes a YAML topology document without validating it.
func Parse(data []byte) (*RTU, error) {
	var r RTU
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing rtu config: %w", err)
	}
	if r.Devices == nil {
		r.Devices = []Device{}
	}
	return &r, nil
}

// Loader produces a freshly generated RTU. The hub uses it on reset.
type Loader func() (*RTU, error)

// FileLoader returns a Loader that regenerates from path on every call.
func FileLoader(path string, logger Logger) Loader {
	return func() (*RTU, error) {
		return Generate(path, logger)
	}
}
