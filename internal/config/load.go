package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", &LoadError{
		Code:    LoadErrorUnknownFormat,
		Message: fmt.Sprintf("unsupported config extension %q (want .yaml, .yml or .toml)", filepath.Ext(path)),
		File:    path,
	}
}

// LoadErrorCode classifies configuration failures.
type LoadErrorCode string

const (
	LoadErrorRead          LoadErrorCode = "READ_FAILED"
	LoadErrorUnknownFormat LoadErrorCode = "UNKNOWN_FORMAT"
	LoadErrorSyntax        LoadErrorCode = "SYNTAX"
	LoadErrorSchema        LoadErrorCode = "SCHEMA"
	LoadErrorInvalid       LoadErrorCode = "INVALID"
)

// LoadError reports a configuration file that could not be used.
type LoadError struct {
	Code    LoadErrorCode
	Message string
	File    string
	// Field is the dotted path of the offending value, when known.
	Field string
	Err   error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads, validates and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: LoadErrorRead, Message: err.Error(), File: path, Err: err}
	}
	cfg, err := Parse(data, format)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse validates and decodes an in-memory configuration document.
func Parse(data []byte, format Format) (*Config, error) {
	raw := map[string]any{}
	if err := unmarshal(data, format, &raw); err != nil {
		return nil, &LoadError{Code: LoadErrorSyntax, Message: err.Error(), Err: err}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := unmarshal(data, format, cfg); err != nil {
		return nil, &LoadError{Code: LoadErrorSyntax, Message: err.Error(), Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(data []byte, format Format, out any) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(out); err != nil {
			return err
		}
		return nil
	case FormatTOML:
		return toml.Unmarshal(data, out)
	}
	return fmt.Errorf("unknown format %q", format)
}

// validateSchema unifies raw with the embedded #Config definition.
func validateSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return &LoadError{Code: LoadErrorSchema, Message: "embedded schema: " + err.Error(), Err: err}
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError keeps the first CUE error and its field path.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: LoadErrorSchema, Message: err.Error(), Err: err}
	}
	first := errs[0]
	format, args := first.Msg()
	return &LoadError{
		Code:    LoadErrorSchema,
		Message: fmt.Sprintf(format, args...),
		Field:   strings.Join(first.Path(), "."),
		Err:     err,
	}
}

// Validate checks cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	if len(c.Windows) == 0 {
		return &LoadError{Code: LoadErrorSchema, Message: "at least one window is required", Field: "windows"}
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if seen[d.Name] {
			return &LoadError{
				Code:    LoadErrorInvalid,
				Message: fmt.Sprintf("duplicate device name %q", d.Name),
				Field:   fmt.Sprintf("devices.%d.name", i),
			}
		}
		seen[d.Name] = true
	}

	for i, w := range c.Windows {
		s, err := w.WindowSettings()
		if err != nil {
			return &LoadError{Code: LoadErrorInvalid, Message: err.Error(), Field: fmt.Sprintf("windows.%d", i), Err: err}
		}
		if _, err := w.BuildCameras(s); err != nil {
			return &LoadError{Code: LoadErrorInvalid, Message: err.Error(), Field: fmt.Sprintf("windows.%d.cameras", i), Err: err}
		}
	}
	return nil
}
