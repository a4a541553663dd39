package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// maxFileSize bounds dataset files read from disk.
const maxFileSize = 64 * 1024 * 1024

var (
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")

	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid dataset")
)

// Format names a dataset encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Dataset is one replayable experiment.
type Dataset struct {
	Name       string    `koanf:"name" toml:"name" json:"name"`
	Classifier *Settings `koanf:"classifier" toml:"classifier" json:"classifier,omitempty"`
	Patterns   []Pattern `koanf:"patterns" toml:"patterns" json:"patterns"`
	Queries    []Query   `koanf:"queries" toml:"queries" json:"queries"`
	Objects    Objects   `koanf:"objects" toml:"objects" json:"objects"`
}

// Settings overrides classifier parameters for one dataset. Unset fields
// keep the caller's base configuration.
type Settings struct {
	MaxRecordedElements *int    `koanf:"max_recorded_elements" toml:"max_recorded_elements" json:"max_recorded_elements,omitempty"`
	CompactHistory      *bool   `koanf:"compact_history" toml:"compact_history" json:"compact_history,omitempty"`
	DigitWidth          *int    `koanf:"digit_width" toml:"digit_width" json:"digit_width,omitempty"`
	Radix               *int    `koanf:"radix" toml:"radix" json:"radix,omitempty"`
	MatchPolicy         *string `koanf:"match_policy" toml:"match_policy" json:"match_policy,omitempty"`
	FramePolicy         *string `koanf:"frame_policy" toml:"frame_policy" json:"frame_policy,omitempty"`
	UnknownLabel        *string `koanf:"unknown_label" toml:"unknown_label" json:"unknown_label,omitempty"`
}

// Apply returns base with every set field replaced.
func (s *Settings) Apply(base config.ClassifierConfig) config.ClassifierConfig {
	if s == nil {
		return base
	}
	if s.MaxRecordedElements != nil {
		base.MaxRecordedElements = *s.MaxRecordedElements
	}
	if s.CompactHistory != nil {
		base.CompactHistory = *s.CompactHistory
	}
	if s.DigitWidth != nil {
		base.DigitWidth = *s.DigitWidth
	}
	if s.Radix != nil {
		base.Radix = *s.Radix
	}
	if s.MatchPolicy != nil {
		base.MatchPolicy = *s.MatchPolicy
	}
	if s.FramePolicy != nil {
		base.FramePolicy = *s.FramePolicy
	}
	if s.UnknownLabel != nil {
		base.UnknownLabel = *s.UnknownLabel
	}
	return base
}

// Pattern is one SDR to learn under a label.
type Pattern struct {
	Label string  `koanf:"label" toml:"label" json:"label"`
	SDR   sdr.SDR `koanf:"sdr" toml:"sdr" json:"sdr"`
}

// Query is an SDR with the label expected first in the prediction.
// HowMany defaults to 1.
type Query struct {
	SDR     sdr.SDR `koanf:"sdr" toml:"sdr" json:"sdr"`
	Expect  string  `koanf:"expect" toml:"expect" json:"expect,omitempty"`
	HowMany int     `koanf:"how_many" toml:"how_many" json:"how_many,omitempty"`
}

// Objects holds the spatial part of a dataset.
type Objects struct {
	Training []spatial.Sample[string] `koanf:"training" toml:"training" json:"training,omitempty"`
	Whole    []spatial.Sample[string] `koanf:"whole" toml:"whole" json:"whole,omitempty"`
	Rounds   []Round                  `koanf:"rounds" toml:"rounds" json:"rounds,omitempty"`
	Validate []Query                  `koanf:"validate" toml:"validate" json:"validate,omitempty"`
}

// Round is one PredictObj call with the label expected to win it.
type Round struct {
	Samples         []spatial.Sample[string] `koanf:"samples" toml:"samples" json:"samples"`
	HowManyFeatures int                      `koanf:"how_many_features" toml:"how_many_features" json:"how_many_features,omitempty"`
	Expect          string                   `koanf:"expect" toml:"expect" json:"expect,omitempty"`
}

// Load reads a dataset file. The name defaults to the file's base name.
func Load(path string) (*Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalid, path, maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	ds, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ds, nil
}

// Parse decodes and validates a dataset.
func Parse(data []byte, format Format) (*Dataset, error) {
	var ds Dataset

	switch format {
	case FormatYAML:
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: parsing yaml: %v", ErrInvalid, err)
		}
		if err := k.Unmarshal("", &ds); err != nil {
			return nil, fmt.Errorf("%w: decoding yaml: %v", ErrInvalid, err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&ds); err != nil {
			return nil, fmt.Errorf("%w: parsing toml: %v", ErrInvalid, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return nil, fmt.Errorf("%w: parsing json: %v", ErrInvalid, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks labels and SDR indices.
func (d *Dataset) Validate() error {
	for i, p := range d.Patterns {
		if p.Label == "" {
			return fmt.Errorf("%w: patterns[%d]: label is required", ErrInvalid, i)
		}
		if err := sdr.Validate(p.SDR); err != nil {
			return fmt.Errorf("%w: patterns[%d]: %v", ErrInvalid, i, err)
		}
	}
	if err := validateQueries("queries", d.Queries); err != nil {
		return err
	}
	if err := validateSamples("objects.training", d.Objects.Training, true); err != nil {
		return err
	}
	if err := validateSamples("objects.whole", d.Objects.Whole, true); err != nil {
		return err
	}
	for i, r := range d.Objects.Rounds {
		if err := validateSamples(fmt.Sprintf("objects.rounds[%d]", i), r.Samples, false); err != nil {
			return err
		}
	}
	return validateQueries("objects.validate", d.Objects.Validate)
}

func validateQueries(section string, queries []Query) error {
	for i, q := range queries {
		if err := sdr.Validate(q.SDR); err != nil {
			return fmt.Errorf("%w: %s[%d]: %v", ErrInvalid, section, i, err)
		}
		if q.HowMany < 0 {
			return fmt.Errorf("%w: %s[%d]: how_many must be >= 0", ErrInvalid, section, i)
		}
	}
	return nil
}

func validateSamples(section string, samples []spatial.Sample[string], labelled bool) error {
	for i, s := range samples {
		if labelled && s.Label == "" {
			return fmt.Errorf("%w: %s[%d]: label is required", ErrInvalid, section, i)
		}
		if err := sdr.Validate(s.SDR); err != nil {
			return fmt.Errorf("%w: %s[%d]: %v", ErrInvalid, section, i, err)
		}
	}
	return nil
}

func (q Query) howMany() int {
	if q.HowMany == 0 {
		return 1
	}
	return q.HowMany
}
