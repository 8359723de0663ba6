package dag

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/resketch/resketch"
	"github.com/resketch/resketch/report"
	"github.com/resketch/resketch/synthetic"
	"github.com/resketch/resketch/traces"
)

// Run executes cfg.Repetitions independent repetitions of the DAG and
// returns the accumulated results, ready for report.Write.
func Run(cfg *Config, log zerolog.Logger) (*report.Document, error) {
	doc := report.NewDocument(report.ExperimentConfig{
		Name:            cfg.Name,
		Repetitions:     cfg.Repetitions,
		MasterSeed:      cfg.MasterSeed,
		SketchDepth:     cfg.SketchDepth,
		SketchKLLK:      cfg.SketchKLLK,
		EvalMetrics:     cfg.EvalMetrics,
		CheckpointEvery: cfg.CheckpointInterval,
		Datasets:        datasetsSummary(cfg),
		Sketches:        sketchesSummary(cfg),
	}, time.Now())

	for rep := uint32(0); rep < cfg.Repetitions; rep++ {
		log.Info().Uint32("repetition", rep+1).Uint32("of", cfg.Repetitions).Msg("starting repetition")

		result, err := runRepetition(cfg, rep, log)
		if err != nil {
			return nil, fmt.Errorf("dag: repetition %d: %w", rep, err)
		}
		doc.Results = append(doc.Results, *result)
	}

	return doc, nil
}

type repState struct {
	sketches      map[string]*resketch.Sketch
	groundTruths  map[string]map[uint64]uint64
	skipStructOp  map[string]bool
}

func runRepetition(cfg *Config, rep uint32, log zerolog.Logger) (*report.RepetitionResult, error) {
	rng := rand.New(rand.NewSource(int64(cfg.MasterSeed) + int64(rep)))

	sharedPartitionSeed := rng.Uint32()
	sharedSeeds := make([]uint32, cfg.SketchDepth)
	for i := range sharedSeeds {
		sharedSeeds[i] = rng.Uint32()
	}

	datasets, err := loadDatasets(cfg, rng, log)
	if err != nil {
		return nil, err
	}

	st := &repState{
		sketches:     make(map[string]*resketch.Sketch),
		groundTruths: make(map[string]map[uint64]uint64),
		skipStructOp: make(map[string]bool),
	}

	result := &report.RepetitionResult{RepetitionID: rep}

	for idx, name := range cfg.ExecutionOrder {
		node := cfg.Sketches[name]
		skip := st.skipStructOp[name]

		width := resketch.CalculateMaxWidth(uint64(node.MemoryBudgetKB)*1024, cfg.SketchDepth, cfg.SketchKLLK)

		if !skip {
			if err := applyStructuralOp(cfg, st, result, name, node, width, idx, sharedPartitionSeed, sharedSeeds, rng); err != nil {
				return nil, err
			}
		}

		if err := processDatasets(cfg, st, result, name, node, datasets); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func loadDatasets(cfg *Config, rng *rand.Rand, log zerolog.Logger) (map[string][]uint64, error) {
	loaded := make(map[string][]uint64, len(cfg.Datasets))
	for name, ds := range cfg.Datasets {
		datasetSeed := rng.Uint32()
		data, err := loadOrGenerateDataset(ds, datasetSeed)
		if err != nil {
			return nil, fmt.Errorf("dag: dataset %q: %w", name, err)
		}
		log.Info().Str("dataset", name).Int("items", len(data)).Msg("loaded dataset")
		loaded[name] = data
	}
	return loaded, nil
}

func loadOrGenerateDataset(ds DatasetConfig, seed uint32) ([]uint64, error) {
	switch ds.DatasetType {
	case "zipf":
		rng := rand.New(rand.NewSource(int64(seed)))
		src := synthetic.Zipf(rng, ds.StreamDiversity, ds.ZipfParam)
		data := make([]uint64, ds.StreamSize)
		for i := range data {
			data[i] = src.Next()
		}
		return data, nil
	case "caida":
		if ds.StreamSize == 0 {
			return nil, fmt.Errorf("dag: caida dataset requires a nonzero stream_size")
		}
		return readCaidaData(ds.CaidaPath, ds.StreamSize)
	default:
		return nil, fmt.Errorf("unknown dataset_type %q", ds.DatasetType)
	}
}

// readCaidaData replays a CAIDA-style address trace -- one
// whitespace-delimited "timestamp address size" record per line, the same
// shape as the application traces package's address format -- truncated to
// maxItems. path is a glob pattern (a plain path matches itself), and
// ".gz"/".bz2" members are decompressed transparently, so a multi-file,
// rotated, compressed CAIDA capture can be named with a single pattern.
func readCaidaData(path string, maxItems uint64) ([]uint64, error) {
	f, err := traces.OpenGlob(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return traces.Collect(traces.NewAddressProvider(f), maxItems), nil
}

func datasetsSummary(cfg *Config) map[string]interface{} {
	out := make(map[string]interface{}, len(cfg.Datasets))
	for name, ds := range cfg.Datasets {
		entry := map[string]interface{}{
			"dataset_type": ds.DatasetType,
			"stream_size":  ds.StreamSize,
		}
		switch ds.DatasetType {
		case "zipf":
			entry["stream_diversity"] = ds.StreamDiversity
			entry["zipf_param"] = ds.ZipfParam
		case "caida":
			entry["caida_path"] = ds.CaidaPath
		}
		out[name] = entry
	}
	return out
}

func sketchesSummary(cfg *Config) map[string]interface{} {
	out := make(map[string]interface{}, len(cfg.Sketches))
	for _, name := range cfg.ExecutionOrder {
		node := cfg.Sketches[name]
		entry := map[string]interface{}{
			"operation":        node.Operation,
			"memory_budget_kb": node.MemoryBudgetKB,
		}
		if sources := node.allSources(); len(sources) > 0 {
			entry["sources"] = sources
		}
		out[name] = entry
	}
	return out
}
