// Package dag drives a sketch through a YAML-described directed acyclic
// graph of structural operations (create, expand, shrink, merge, split),
// feeding each node a share of one or more synthetic or trace-derived
// datasets and recording accuracy/throughput checkpoints as it goes.
package dag

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// DatasetConfig describes one named input stream, either generated
// in-process (zipf) or replayed from a file (caida).
type DatasetConfig struct {
	Name             string
	DatasetType      string `yaml:"dataset_type"`
	CaidaPath        string `yaml:"caida_path"`
	StreamSize       uint64 `yaml:"stream_size"`
	StreamDiversity  uint64 `yaml:"stream_diversity"`
	ZipfParam        float64 `yaml:"zipf_param"`
}

// DatasetReference ties a SketchNode to a slice of one DatasetConfig's
// stream: NumItems items starting at StartOffset.
type DatasetReference struct {
	DatasetName string `yaml:"dataset"`
	NumItems    uint64 `yaml:"num_items"`
	StartOffset uint64 `yaml:"start_offset"`
}

// SketchNode is one node of the DAG: a structural operation producing a
// named sketch, optionally fed by one or more DatasetReferences.
type SketchNode struct {
	Name            string
	Operation       string             `yaml:"operation"`
	MemoryBudgetKB  uint32             `yaml:"memory_budget_kb"`
	Source          string             `yaml:"source"`
	Sources         []string           `yaml:"sources"`
	Datasets        []DatasetReference `yaml:"datasets"`
}

// allSources returns Source folded into Sources, since the YAML schema
// accepts either a single "source" key or a "sources" list.
func (n SketchNode) allSources() []string {
	if n.Source == "" {
		return n.Sources
	}
	return append([]string{n.Source}, n.Sources...)
}

// Config is a fully parsed DAG run: datasets, shared sketch parameters,
// the node graph, and its execution order.
type Config struct {
	Name        string
	Repetitions uint32
	OutputFile  string
	MasterSeed  uint32

	Datasets map[string]DatasetConfig

	SketchDepth uint32
	SketchKLLK  uint32

	EvalMetrics        []string
	CheckpointInterval uint64

	Sketches       map[string]SketchNode
	ExecutionOrder []string
}

type yamlRoot struct {
	Metadata struct {
		Name        string `yaml:"name"`
		Repetitions uint32 `yaml:"repetitions"`
		OutputFile  string `yaml:"output_file"`
	} `yaml:"metadata"`
	Datasets map[string]DatasetConfig `yaml:"datasets"`
	SketchConfig struct {
		Depth uint32 `yaml:"depth"`
		KLLK  uint32 `yaml:"kll_k"`
	} `yaml:"sketch_config"`
	Evaluation struct {
		Metrics             []string `yaml:"metrics"`
		CheckpointIntervals uint64   `yaml:"checkpoint_intervals"`
	} `yaml:"evaluation"`
	Sketches     map[string]SketchNode `yaml:"sketches"`
	OtherOptions struct {
		MasterSeed uint32 `yaml:"master_seed"`
	} `yaml:"other_options"`
}

// ParseConfig decodes a DAG config from YAML, fills in each DatasetConfig
// and SketchNode's map key as its Name, and computes ExecutionOrder via a
// topological sort of the sketch graph.
func ParseConfig(data []byte) (*Config, error) {
	var root yamlRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("dag: parsing config: %w", err)
	}

	cfg := &Config{
		Name:               root.Metadata.Name,
		Repetitions:        root.Metadata.Repetitions,
		OutputFile:         root.Metadata.OutputFile,
		MasterSeed:         root.OtherOptions.MasterSeed,
		Datasets:           make(map[string]DatasetConfig, len(root.Datasets)),
		SketchDepth:        root.SketchConfig.Depth,
		SketchKLLK:         root.SketchConfig.KLLK,
		EvalMetrics:        root.Evaluation.Metrics,
		CheckpointInterval: root.Evaluation.CheckpointIntervals,
		Sketches:           make(map[string]SketchNode, len(root.Sketches)),
	}

	for name, ds := range root.Datasets {
		ds.Name = name
		cfg.Datasets[name] = ds
	}
	for name, sk := range root.Sketches {
		sk.Name = name
		cfg.Sketches[name] = sk
	}

	order, err := topologicalSort(cfg.Sketches)
	if err != nil {
		return nil, err
	}
	cfg.ExecutionOrder = order

	return cfg, nil
}

// topologicalSort orders sketches so that every node appears after all of
// its sources, using Kahn's algorithm. Iteration over map keys is sorted
// to keep the order deterministic when there are ties.
func topologicalSort(sketches map[string]SketchNode) ([]string, error) {
	inDegree := make(map[string]int, len(sketches))
	adjacency := make(map[string][]string)

	for name := range sketches {
		inDegree[name] = 0
	}
	for name, sk := range sketches {
		for _, src := range sk.allSources() {
			adjacency[src] = append(adjacency[src], name)
			inDegree[name]++
		}
	}
	for src := range adjacency {
		sort.Strings(adjacency[src])
	}

	var queue []string
	for _, name := range sortedKeys(inDegree) {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, neighbor := range adjacency[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(order) != len(sketches) {
		return nil, fmt.Errorf("dag: cycle detected among sketch nodes")
	}
	return order, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
