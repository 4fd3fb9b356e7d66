package config

import (
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed profiles/*.toml
var profileFS embed.FS

var profileFiles = map[string]string{
	"standard":      "profiles/standard.toml",
	"beginner":      "profiles/beginner.toml",
	"advanced":      "profiles/advanced.toml",
	"risky":         "profiles/risky.toml",
	"attacker-ties": "profiles/attacker_ties.toml",
}

// Names returns the known ruleset profile names.
func Names() []string {
	names := make([]string, 0, len(profileFiles))
	for name := range profileFiles {
		names = append(names, name)
	}
	return names
}

// Load decodes the named ruleset profile. Returns an error if the name is
// unknown or the embedded TOML fails to decode.
func Load(name string) (Config, error) {
	path, ok := profileFiles[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown ruleset profile: %q", name)
	}

	data, err := profileFS.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read profile %q: %w", name, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode profile %q: %w", name, err)
	}
	return cfg, nil
}

// MustLoad is Load, panicking on error. Intended for package-init-time use
// with the built-in profile names only.
func MustLoad(name string) Config {
	cfg, err := Load(name)
	if err != nil {
		panic(err)
	}
	return cfg
}
