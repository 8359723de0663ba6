package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records a point-in-time accuracy/throughput snapshot taken
// while streaming items into one sketch.
type Checkpoint struct {
	SketchName          string  `json:"sketch_name"`
	ItemsProcessed      uint64  `json:"items_processed"`
	ThroughputMops      float64 `json:"throughput_mops"`
	QueryThroughputMops float64 `json:"query_throughput_mops"`
	MemoryKB            uint64  `json:"memory_kb"`
	ARE                 float64 `json:"are"`
	AAE                 float64 `json:"aae"`
	AREVariance         float64 `json:"are_variance"`
	AAEVariance         float64 `json:"aae_variance"`

	// Baseline, when present, is a second Estimator (e.g. a
	// baselines.CountMinSketch sized to the same memory budget) measured
	// against the same ground truth, so the JSON output carries a direct
	// side-by-side accuracy comparison.
	Baseline *BaselineResult `json:"baseline,omitempty"`
}

// BaselineResult is one comparator's accuracy/sizing alongside a Checkpoint.
type BaselineResult struct {
	Name        string  `json:"name"`
	MemoryKB    uint64  `json:"memory_kb"`
	ARE         float64 `json:"are"`
	AAE         float64 `json:"aae"`
	AREVariance float64 `json:"are_variance"`
	AAEVariance float64 `json:"aae_variance"`
	ErrorBound  float64 `json:"error_bound,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// StructuralOpResult records the outcome of one structural transform
// (create, expand, shrink, merge, split) applied to a sketch.
type StructuralOpResult struct {
	SketchName  string  `json:"sketch_name"`
	Operation   string  `json:"operation"`
	LatencyS    float64 `json:"latency_s"`
	MemoryKB    uint64  `json:"memory_kb"`
	ARE         float64 `json:"are"`
	AAE         float64 `json:"aae"`
	AREVariance float64 `json:"are_variance"`
	AAEVariance float64 `json:"aae_variance"`
}

// RepetitionResult bundles every Checkpoint and StructuralOpResult
// produced by one repetition of a DAG run.
type RepetitionResult struct {
	RepetitionID uint32                `json:"repetition_id"`
	Checkpoints  []Checkpoint          `json:"checkpoints"`
	StructuralOp []StructuralOpResult  `json:"structural_operations"`
}

// ExperimentConfig captures the subset of the run configuration that gets
// echoed back into the result file, so a reader of the JSON output does
// not need the original config alongside it.
type ExperimentConfig struct {
	Name             string                 `json:"dag_name"`
	Repetitions      uint32                 `json:"repetitions"`
	MasterSeed       uint32                 `json:"master_seed"`
	SketchDepth      uint32                 `json:"depth"`
	SketchKLLK       uint32                 `json:"kll_k"`
	EvalMetrics      []string               `json:"metrics"`
	CheckpointEvery  uint64                 `json:"checkpoint_interval"`
	Datasets         map[string]interface{} `json:"datasets"`
	Sketches         map[string]interface{} `json:"sketches"`
}

// Document is the full shape of a results JSON file: metadata, the
// configuration that produced it, and one RepetitionResult per repetition.
type Document struct {
	Metadata struct {
		ExperimentType string `json:"experiment_type"`
		Timestamp      string `json:"timestamp"`
	} `json:"metadata"`
	Config  ExperimentConfig    `json:"config"`
	Results []RepetitionResult `json:"results"`
}

// NewDocument stamps a Document with the current time and the given
// config, ready to have Results appended as repetitions complete.
func NewDocument(cfg ExperimentConfig, now time.Time) *Document {
	d := &Document{Config: cfg}
	d.Metadata.ExperimentType = "dag"
	d.Metadata.Timestamp = now.UTC().Format("2006-01-02T15:04:05Z")
	return d
}

// Write serializes d as indented JSON to path, creating any missing parent
// directories.
func Write(path string, d *Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// TimestampedPath inserts "_YYYYMMDD_HHMMSS" before path's extension, the
// way a DAG run disambiguates repeated invocations writing to the same
// configured output file.
func TimestampedPath(path string, now time.Time) string {
	ts := now.Format("20060102_150405")
	ext := filepath.Ext(path)
	if ext == "" {
		return path + "_" + ts
	}
	base := path[:len(path)-len(ext)]
	return base + "_" + ts + ext
}
