// Command resketch-bench drives a single Sketch against a synthetic or
// trace-derived stream, reports its accuracy against the true frequencies
// it observed, and writes the result as a JSON report.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/resketch/resketch"
	"github.com/resketch/resketch/baselines"
	"github.com/resketch/resketch/report"
	"github.com/resketch/resketch/synthetic"
	"github.com/resketch/resketch/traces"
)

func main() {
	var (
		memoryBudgetKB = pflag.Uint64("memory-budget-kb", 1024, "sketch memory budget in KiB")
		depth          = pflag.Uint32("depth", 4, "number of sketch rows")
		kllK           = pflag.Uint32("kll-k", 200, "KLL sketch compaction parameter k")
		repetitions    = pflag.Uint32("repetitions", 1, "number of independent repetitions to run")
		datasetType    = pflag.String("dataset", "zipf", "dataset type: zipf, caida")
		caidaPath      = pflag.String("caida-path", "", "glob pattern for a CAIDA-style address trace (required when --dataset=caida)")
		streamSize     = pflag.Uint64("stream-size", 1_000_000, "number of items to stream")
		diversity      = pflag.Uint64("diversity", 100_000, "number of distinct items")
		zipfParam      = pflag.Float64("zipf-param", 1.3, "zipf skew parameter (> 1.0)")
		seed           = pflag.Int64("seed", 1, "master RNG seed")
		baseline       = pflag.Bool("baseline", true, "also measure a Count-Min sketch sized to the same memory budget")
		output         = pflag.String("output", "bench_results.json", "output report path")
		verbose        = pflag.Bool("verbose", false, "enable debug logging")
	)
	pflag.Parse()

	logLevel := zerolog.InfoLevel
	if *verbose {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(logLevel).With().Timestamp().Logger()

	if *datasetType == "caida" && *caidaPath == "" {
		log.Fatal().Msg("--caida-path is required when --dataset=caida")
	}

	if err := run(log, benchParams{
		memoryBudgetKB: *memoryBudgetKB,
		depth:          *depth,
		kllK:           *kllK,
		repetitions:    *repetitions,
		datasetType:    *datasetType,
		caidaPath:      *caidaPath,
		streamSize:     *streamSize,
		diversity:      *diversity,
		zipfParam:      *zipfParam,
		seed:           *seed,
		baseline:       *baseline,
		output:         *output,
	}); err != nil {
		log.Fatal().Err(err).Msg("bench run failed")
	}
}

type benchParams struct {
	memoryBudgetKB uint64
	depth          uint32
	kllK           uint32
	repetitions    uint32
	datasetType    string
	caidaPath      string
	streamSize     uint64
	diversity      uint64
	zipfParam      float64
	seed           int64
	baseline       bool
	output         string
}

func run(log zerolog.Logger, p benchParams) error {
	doc := report.NewDocument(report.ExperimentConfig{
		Name:        "bench",
		Repetitions: p.repetitions,
		MasterSeed:  uint32(p.seed),
		SketchDepth: p.depth,
		SketchKLLK:  p.kllK,
	}, time.Now())

	for rep := uint32(0); rep < p.repetitions; rep++ {
		checkpoint, err := runRepetition(log, p, rep)
		if err != nil {
			return err
		}
		doc.Results = append(doc.Results, report.RepetitionResult{
			RepetitionID: rep,
			Checkpoints:  []report.Checkpoint{*checkpoint},
		})
	}

	path := report.TimestampedPath(p.output, time.Now())
	if err := report.Write(path, doc); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("report written")
	return nil
}

func runRepetition(log zerolog.Logger, p benchParams, rep uint32) (*report.Checkpoint, error) {
	rng := rand.New(rand.NewSource(p.seed + int64(rep)))
	partitionSeed := rng.Uint32()

	sketch := resketch.FromBudget(p.memoryBudgetKB*1024, p.depth, p.kllK, partitionSeed, rng)
	log.Info().
		Uint32("repetition", rep+1).
		Uint32("depth", sketch.Depth()).
		Uint32("width", sketch.Width()).
		Uint64("memory_bytes", sketch.MaxMemoryUsage()).
		Msg("sketch created")

	stream, err := loadStream(p, rng)
	if err != nil {
		return nil, err
	}

	var cms *baselines.CountMinSketch
	if p.baseline {
		cms = baselines.NewFromDimensions(
			baselines.CalculateMaxWidth(p.memoryBudgetKB*1024, p.depth), p.depth, rng)
	}

	truth := make(map[uint64]uint64, p.diversity)
	start := time.Now()
	for _, item := range stream {
		sketch.Update(item)
		if cms != nil {
			cms.Update(item)
		}
		truth[item]++
	}
	elapsed := time.Since(start).Seconds()
	throughput := float64(len(stream)) / elapsed / 1e6

	acc := report.Measure(sketch, truth)
	checkpoint := report.Checkpoint{
		SketchName:     "bench",
		ItemsProcessed: uint64(len(stream)),
		ThroughputMops: throughput,
		MemoryKB:       sketch.MaxMemoryUsage() / 1024,
		ARE:            acc.ARE,
		AAE:            acc.AAE,
		AREVariance:    acc.AREVariance,
		AAEVariance:    acc.AAEVariance,
	}

	logEvent := log.Info().
		Float64("are", acc.ARE).
		Float64("aae", acc.AAE).
		Float64("throughput_mops", throughput)

	if cms != nil {
		baseAcc := report.Measure(cms, truth)
		checkpoint.Baseline = &report.BaselineResult{
			Name:        "count-min",
			MemoryKB:    cms.MaxMemoryUsage() / 1024,
			ARE:         baseAcc.ARE,
			AAE:         baseAcc.AAE,
			AREVariance: baseAcc.AREVariance,
			AAEVariance: baseAcc.AAEVariance,
		}
		logEvent = logEvent.Float64("baseline_are", baseAcc.ARE).Float64("baseline_aae", baseAcc.AAE)
	}
	logEvent.Msg("stream processed")

	return &checkpoint, nil
}

func loadStream(p benchParams, rng *rand.Rand) ([]uint64, error) {
	switch p.datasetType {
	case "zipf":
		source := synthetic.Zipf(rng, p.diversity, p.zipfParam)
		stream := make([]uint64, p.streamSize)
		for i := range stream {
			stream[i] = source.Next()
		}
		return stream, nil
	case "caida":
		f, err := traces.OpenGlob(p.caidaPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return traces.Collect(traces.NewAddressProvider(f), p.streamSize), nil
	default:
		return nil, fmt.Errorf("unsupported dataset type %q", p.datasetType)
	}
}
