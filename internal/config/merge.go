package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rshade/bytecarbon/internal/footprint"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyVersion    = "version"
	keyOutput     = "output"
	keyLogging    = "logging"
	keyFactors    = "factors"
	keySubmission = "submission"
	keyExport     = "export"
	keyServer     = "server"
)

// knownTopLevelKeys lists the YAML keys that correspond to Config fields.
// Keys not in this list are silently ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyVersion:    true,
	keyOutput:     true,
	keyLogging:    true,
	keyFactors:    true,
	keySubmission: true,
	keyExport:     true,
	keyServer:     true,
}

// ShallowMergeYAML loads an overlay file (the --config flag) onto target.
// Sections present in the overlay replace the target's section wholesale,
// except factors, which are merged field by field so an overlay can tune a
// single factor. Absent sections are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]interface{}
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	// Empty or comment-only file: nothing to merge.
	if len(overlay) == 0 {
		return nil
	}

	for key, value := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}

		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}

		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// unmarshalSection decodes one section into a fresh zero value so that
// yaml.Unmarshal cannot merge into the target's existing maps. Factors are
// the exception: they are decoded onto a copy of the current factors.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keyVersion:
		var v string
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Version = v
	case keyOutput:
		var v OutputConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Output = v
	case keyLogging:
		var v LoggingConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Logging = v
	case keyFactors:
		v, err := target.Factors.Overlay(func(out any) error { return yaml.Unmarshal(data, out) })
		if err != nil {
			return err
		}
		target.Factors = v
	case keySubmission:
		var v SubmissionConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Submission = v
	case keyExport:
		var v ExportConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Export = v
	case keyServer:
		var v ServerConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Server = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// LoadFactorsFile reads a standalone factors YAML file (the --factors flag)
// and merges it onto base.
func LoadFactorsFile(base footprint.Factors, path string) (footprint.Factors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading factors file %s: %w", path, err)
	}
	merged, err := base.Overlay(func(out any) error { return yaml.Unmarshal(data, out) })
	if err != nil {
		return base, fmt.Errorf("parsing factors file %s: %w", path, err)
	}
	if err = merged.Validate(); err != nil {
		return base, fmt.Errorf("factors file %s: %w", path, err)
	}
	return merged, nil
}
