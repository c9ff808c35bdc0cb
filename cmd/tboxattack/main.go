// Command tboxattack drives the full measurement-and-analysis pipeline
// from spec.md: it calibrates (or accepts an explicit threshold),
// measures the target key and a series of test keys, correlates and
// aggregates the results, and optionally runs the Brute-Force Engine
// against a candidate-pool file.
//
// Usage:
//
//	tboxattack [-config study.yaml] [-bf bf.dat] [threshold]
//
// The single optional positional argument is spec.md §6's explicit
// threshold override.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kvieira/tboxtiming/internal/block"
	"github.com/kvieira/tboxtiming/internal/bruteforce"
	"github.com/kvieira/tboxtiming/internal/calibrate"
	"github.com/kvieira/tboxtiming/internal/config"
	"github.com/kvieira/tboxtiming/internal/correlate"
	"github.com/kvieira/tboxtiming/internal/cycletimer"
	"github.com/kvieira/tboxtiming/internal/entropy"
	"github.com/kvieira/tboxtiming/internal/ioformat"
	"github.com/kvieira/tboxtiming/internal/measure"
	"github.com/kvieira/tboxtiming/internal/oracle"
	"github.com/kvieira/tboxtiming/internal/scrub"
	"github.com/kvieira/tboxtiming/internal/stats"
	"github.com/kvieira/tboxtiming/internal/tally"
	"github.com/kvieira/tboxtiming/internal/tuner"
)

// Exit codes per spec.md §6/§7: 0 success (including "no brute-force
// requested"), 1 on configuration/I/O error or brute-force exhaustion.
const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "optional YAML study configuration file")
	bfPath := flag.String("bf", "", "optional bf.dat candidate-pool file; overrides the config file's brute_force_pool_file")
	flag.Parse()

	var cliThreshold float64
	if flag.NArg() > 0 {
		t, err := strconv.ParseFloat(flag.Arg(0), 64)
		if err != nil {
			log.Printf("tboxattack: invalid threshold argument %q: %v", flag.Arg(0), err)
			return exitFailure
		}
		cliThreshold = t
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Printf("tboxattack: %v", err)
		return exitFailure
	}
	if *bfPath != "" {
		cfg.BruteForcePoolFile = *bfPath
	}

	src := entropy.CryptoRandSource{}
	timer := cycletimer.New()
	wall := cycletimer.SystemWallClock{}

	var sc func()
	if cfg.ScrubBetweenMeasurements {
		scrubber := scrub.New()
		sc = scrubber.Scrub
	}

	var tn tuner.Tuner
	if cfg.PinCPU || cfg.Realtime {
		tn = tuner.New()
	}

	o := oracle.New()

	targetKey, err := readTargetKey(cfg.TargetKeyFile)
	if err != nil {
		log.Printf("tboxattack: %v", err)
		return exitFailure
	}

	threshold, rate, err := resolveThreshold(cfg, cliThreshold, src, o, wall)
	if err != nil {
		log.Printf("tboxattack: %v", err)
		return exitFailure
	}
	log.Printf("tboxattack: calibrated rate=%.0f/s threshold=%d ticks", rate, threshold)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Printf("tboxattack: creating output directory: %v", err)
		return exitFailure
	}
	if err := writeRateFile(cfg, rate, threshold); err != nil {
		log.Printf("tboxattack: %v", err)
		return exitFailure
	}

	study := measure.Study{
		N:               cfg.MeasurementsPerStudy,
		Cutoff:          threshold,
		OutlierFilter:   cfg.OutlierFilter,
		MaxDiscardRatio: cfg.MaxDiscardRatio,
		Scrub:           sc,
		Tuner:           tn,
	}

	log.Printf("tboxattack: measuring target key (%d accepted measurements)", study.N)
	targetRS, targetMV, err := runStudy(cfg, study, src, o, timer, targetKey, "target")
	if err != nil {
		log.Printf("tboxattack: target key study: %v", err)
		return exitFailure
	}
	if cfg.WriteTallyDump {
		if err := dumpTally(cfg, "target", targetRS, targetMV); err != nil {
			log.Printf("tboxattack: %v", err)
			return exitFailure
		}
	}

	matrices := make([]correlate.Matrix, 0, cfg.TestKeyCount)
	for k := 0; k < cfg.TestKeyCount; k++ {
		testKey, err := src.Random()
		if err != nil {
			log.Printf("tboxattack: drawing test key %d: %v", k, err)
			return exitFailure
		}

		log.Printf("tboxattack: measuring test key %d/%d", k+1, cfg.TestKeyCount)
		label := fmt.Sprintf("test-%02d", k)
		testRS, testMV, err := runStudy(cfg, study, src, o, timer, testKey, label)
		if err != nil {
			log.Printf("tboxattack: test key %d study: %v", k, err)
			return exitFailure
		}
		if cfg.WriteTallyDump {
			if err := dumpTally(cfg, label, testRS, testMV); err != nil {
				log.Printf("tboxattack: %v", err)
				return exitFailure
			}
		}

		m := correlate.Correlate(targetMV, testMV, testKey)
		matrices = append(matrices, m)

		if cfg.WriteCorrelationDump {
			if err := dumpCorrelation(cfg, k, m); err != nil {
				log.Printf("tboxattack: %v", err)
				return exitFailure
			}
		}
	}

	aggregate := correlate.SumAll(matrices)
	if err := dumpAggregateCorrelation(cfg, aggregate); err != nil {
		log.Printf("tboxattack: %v", err)
		return exitFailure
	}

	if cfg.BruteForcePoolFile == "" {
		log.Printf("tboxattack: no brute-force requested, finishing after correlation gathering")
		return exitSuccess
	}

	return bruteForce(cfg, o, targetKey)
}

func readTargetKey(path string) (block.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return block.Block{}, fmt.Errorf("opening target key file %q: %w", path, err)
	}
	defer f.Close()

	return ioformat.ReadTargetKey(f)
}

// resolveThreshold implements spec.md §4.2/§6: an explicit, positive CLI
// threshold skips calibration entirely; otherwise the Threshold
// Calibrator runs with the outlier filter disabled and a random key.
func resolveThreshold(
	cfg config.Study,
	cliThreshold float64,
	src entropy.Source,
	o oracle.Oracle,
	wall cycletimer.WallClock,
) (threshold block.Tick, rate float64, err error) {
	if cliThreshold > 0 {
		return block.Tick(cliThreshold), 0, nil
	}

	key, err := src.Random()
	if err != nil {
		return 0, 0, fmt.Errorf("drawing calibration key: %w", err)
	}
	o.Expand(key)
	enc := measure.OracleTimer{Oracle: o, Timer: cycletimer.New()}

	result, err := calibrate.Calibrate(src, enc, wall, cfg.CalibrationRunsExponent, cfg.ThresholdMultiplier)
	if err != nil {
		return 0, 0, fmt.Errorf("calibrating: %w", err)
	}
	return result.Threshold, result.RatePerSecond, nil
}

func writeRateFile(cfg config.Study, rate float64, threshold block.Tick) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, "rate.txt"))
	if err != nil {
		return fmt.Errorf("creating rate file: %w", err)
	}
	defer f.Close()
	return ioformat.WriteRate(f, calibrate.Result{RatePerSecond: rate, Threshold: threshold})
}

func runStudy(
	cfg config.Study,
	study measure.Study,
	src entropy.Source,
	o oracle.Oracle,
	timer cycletimer.Timer,
	key block.Block,
	label string,
) (*tally.RunState, stats.MeanVector, error) {
	o.Expand(key)
	enc := measure.OracleTimer{Oracle: o, Timer: timer}

	var raw []ioformat.RawRecord
	if cfg.WriteRawDump {
		study.OnAccept = func(p block.Block, d block.Tick) {
			raw = append(raw, ioformat.RawRecord{Cleartext: p, Ticks: d})
		}
	}

	rs, err := study.Run(src, enc)
	if err != nil {
		return nil, stats.MeanVector{}, err
	}

	if cfg.WriteRawDump {
		if err := dumpRaw(cfg, label, raw); err != nil {
			return nil, stats.MeanVector{}, err
		}
	}

	return rs, stats.Extract(rs), nil
}

func dumpRaw(cfg config.Study, label string, records []ioformat.RawRecord) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, fmt.Sprintf("raw-%s.txt", label)))
	if err != nil {
		return fmt.Errorf("creating raw dump for %s: %w", label, err)
	}
	defer f.Close()
	return ioformat.WriteRawDump(f, ioformat.RawDumpASCII, records)
}

func dumpTally(cfg config.Study, label string, rs *tally.RunState, mv stats.MeanVector) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, fmt.Sprintf("tally-%s.txt", label)))
	if err != nil {
		return fmt.Errorf("creating tally dump for %s: %w", label, err)
	}
	defer f.Close()
	return ioformat.WriteTallyDump(f, rs, mv)
}

func dumpCorrelation(cfg config.Study, testKeyIndex int, m correlate.Matrix) error {
	name := fmt.Sprintf("correlation-%02d.txt", testKeyIndex)
	f, err := os.Create(filepath.Join(cfg.OutputDir, name))
	if err != nil {
		return fmt.Errorf("creating correlation dump %q: %w", name, err)
	}
	defer f.Close()
	return ioformat.WriteCorrelationDump(f, m)
}

func dumpAggregateCorrelation(cfg config.Study, m correlate.Matrix) error {
	f, err := os.Create(filepath.Join(cfg.OutputDir, "correlation-aggregate.txt"))
	if err != nil {
		return fmt.Errorf("creating aggregate correlation dump: %w", err)
	}
	defer f.Close()
	return ioformat.WriteCorrelationDump(f, m)
}

func bruteForce(cfg config.Study, o oracle.Oracle, targetKey block.Block) int {
	f, err := os.Open(cfg.BruteForcePoolFile)
	if err != nil {
		log.Printf("tboxattack: opening brute-force pool file: %v", err)
		return exitFailure
	}
	pools, err := ioformat.ReadPools(f)
	f.Close()
	if err != nil {
		log.Printf("tboxattack: %v", err)
		return exitFailure
	}

	size, err := pools.SearchSpaceSize()
	if err != nil {
		log.Printf("tboxattack: %v", err)
		return exitFailure
	}
	log.Printf("tboxattack: brute-force search space is 2^%.1f candidates", size)

	o.Expand(targetKey)
	found, err := bruteforce.Search(o, pools)
	if err != nil {
		log.Printf("tboxattack: brute-force: %v", err)
		return exitFailure
	}

	log.Printf("tboxattack: recovered key %s", found)
	return exitSuccess
}
