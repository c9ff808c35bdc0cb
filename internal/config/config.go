// Package config implements the optional YAML study configuration
// layer described in SPEC_FULL.md §2.3: the teacher has no
// configuration layer of its own, so this follows the corpus's own
// choice of gopkg.in/yaml.v3 (present in the dependency graphs of
// sixafter-nanoid and tuneinsight-lattigo) for the handful of knobs the
// CLI driver needs beyond spec.md's built-in constants.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kvieira/tboxtiming/internal/calibrate"
)

// Study holds every knob the CLI driver exposes beyond spec.md's
// built-in defaults. Every field except TargetKeyFile has a usable
// default, so an empty or partial YAML file only needs to name the
// target-key file; TargetKeyFile defaults to empty, and the driver fails
// when it is not set.
type Study struct {
	// TargetKeyFile is the path to the 16-byte raw target-key file
	// (spec.md §6).
	TargetKeyFile string `yaml:"target_key_file"`

	// MeasurementsPerStudy is N, the number of accepted measurements
	// per key study (spec.md §4.1).
	MeasurementsPerStudy int `yaml:"measurements_per_study"`

	// TestKeyCount is K, the number of test keys the multi-test-key
	// driver generates (SPEC_FULL.md §4).
	TestKeyCount int `yaml:"test_key_count"`

	// CalibrationRunsExponent and ThresholdMultiplier feed
	// calibrate.Calibrate; they default to spec.md §4.2's
	// DEFAULT_RUNS/THRESH_MULT.
	CalibrationRunsExponent int     `yaml:"calibration_runs_exponent"`
	ThresholdMultiplier     float64 `yaml:"threshold_multiplier"`

	// OutlierFilter enables the measurement loop's cutoff-based
	// discard (spec.md §4.1).
	OutlierFilter bool `yaml:"outlier_filter"`

	// MaxDiscardRatio is the opt-in degeneracy guard from
	// SPEC_FULL.md §4; zero disables it, matching measure.Study's own
	// zero-value default.
	MaxDiscardRatio float64 `yaml:"max_discard_ratio"`

	// ScrubBetweenMeasurements enables the Cache Scrubber before every
	// attempted measurement, discarded ones included (spec.md §9).
	ScrubBetweenMeasurements bool `yaml:"scrub_between_measurements"`

	// PinCPU and Realtime request the Process Tuner's best-effort
	// affinity/scheduling changes (spec.md §5). They are not applied
	// separately: setting either one makes every key study call both
	// Tuner.PinCPU and Tuner.Realtime.
	PinCPU   bool `yaml:"pin_cpu"`
	Realtime bool `yaml:"realtime"`

	// WriteRawDump, WriteCorrelationDump, and WriteTallyDump toggle
	// the optional dumps from spec.md §6.
	WriteRawDump         bool `yaml:"write_raw_dump"`
	WriteCorrelationDump bool `yaml:"write_correlation_dump"`
	WriteTallyDump       bool `yaml:"write_tally_dump"`

	// OutputDir is where rate/raw/correlation/tally files are written.
	// The driver writes no digest sidecars for them.
	OutputDir string `yaml:"output_dir"`

	// BruteForcePoolFile, when non-empty, requests a brute-force pass
	// against the bf.dat at this path after correlation gathering
	// (spec.md §7's "no brute-force requested" branch is the zero
	// value here).
	BruteForcePoolFile string `yaml:"brute_force_pool_file"`
}

// Default returns the configuration the CLI driver uses when no YAML
// file is supplied, or as the base a loaded file is merged onto.
func Default() Study {
	return Study{
		MeasurementsPerStudy:    1000,
		TestKeyCount:            8,
		CalibrationRunsExponent: calibrate.DefaultRunsExponent,
		ThresholdMultiplier:     calibrate.DefaultThresholdMultiplier,
		OutlierFilter:           true,
		OutputDir:               ".",
	}
}

// Load reads and parses a YAML study file, applying its values on top
// of Default(). A missing or empty field in the YAML keeps the
// corresponding default.
func Load(r io.Reader) (Study, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	// A study file is optional, but a present one is decoded strictly:
	// unknown fields are a typo an operator will want to know about.
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Study{}, fmt.Errorf("config: parsing study file: %w", err)
	}
	return cfg, nil
}

// LoadFile opens path and calls Load. A missing file is not an error —
// it returns Default() — since the study file itself is optional
// (SPEC_FULL.md §2.3); any other I/O error is fatal per spec.md §7's
// configuration/I/O error policy.
func LoadFile(path string) (Study, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Study{}, fmt.Errorf("config: opening study file %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
