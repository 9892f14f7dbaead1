// internal/config/load.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads a config file. The format follows the extension:
// .yaml/.yml or .toml. Unknown keys are rejected.
// Load does not validate; call Validate then Normalize.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".toml":
		return decodeTOML(data)
	default:
		return nil, fmt.Errorf("config: unsupported file extension %q (allowed: .yaml, .yml, .toml)", ext)
	}
}

func decodeYAML(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config: empty file")
		}
		return nil, fmt.Errorf("config: yaml: %w", err)
	}
	return &cfg, nil
}

func decodeTOML(data []byte) (*Config, error) {
	var cfg Config

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config: toml: unknown keys: %s", strings.Join(keys, ", "))
	}
	return &cfg, nil
}
