// Package config merges the three layers of configuration spec.md §6
// describes: built-in defaults, an optional on-disk YAML file, and
// per-call overrides, in that precedence order (later layers win).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the merged configuration passed into a compile/execute/shape
// call.
type Options struct {
	Endpoint string `yaml:"endpoint"`
	Context  string `yaml:"context"`
	LangTag  string `yaml:"langTag"`
	Debug    bool   `yaml:"debug"`
}

// Defaults returns the built-in baseline, exactly spec.md §6's documented
// defaults.
func Defaults() Options {
	return Options{
		Context:  "http://schema.org/",
		Endpoint: "http://dbpedia.org/sparql",
		LangTag:  "show",
	}
}

// LoadFile reads an on-disk YAML config file and merges it over defaults.
// A missing file is not an error — it simply means no file-layer overrides
// exist — but a present, malformed file is.
func LoadFile(path string) (Options, error) {
	opts := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}
	var fileOpts Options
	if err := yaml.Unmarshal(data, &fileOpts); err != nil {
		return opts, err
	}
	return mergeNonZero(opts, fileOpts), nil
}

// Override merges call-site overrides over base, the final and
// highest-precedence layer.
func Override(base Options, override Options) Options {
	return mergeNonZero(base, override)
}

func mergeNonZero(base, override Options) Options {
	out := base
	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
	}
	if override.Context != "" {
		out.Context = override.Context
	}
	if override.LangTag != "" {
		out.LangTag = override.LangTag
	}
	if override.Debug {
		out.Debug = true
	}
	return out
}
