// Package yaml loads persona prompt files.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/tranquility"
	"gopkg.in/yaml.v3"
)

// DecodePersona reads a persona document from r. Fields missing from the
// document keep their values from tranquility.DefaultPersona.
func DecodePersona(r io.Reader) (tranquility.Persona, error) {
	p := tranquility.DefaultPersona()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return tranquility.Persona{}, fmt.Errorf("decode persona: %w", err)
	}
	if err := p.Validate(); err != nil {
		return tranquility.Persona{}, err
	}
	return p, nil
}

// LoadPersona reads a persona file. An empty path returns the default
// persona.
func LoadPersona(path string) (tranquility.Persona, error) {
	if path == "" {
		return tranquility.DefaultPersona(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return tranquility.Persona{}, fmt.Errorf("open persona: %w", err)
	}
	defer f.Close()
	return DecodePersona(f)
}

// EncodePersona writes p as YAML. It is the starting point for a custom
// persona file.
func EncodePersona(w io.Writer, p tranquility.Persona) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode persona: %w", err)
	}
	return enc.Close()
}
