package dag

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/resketch/resketch"
	"github.com/resketch/resketch/report"
)

// applyStructuralOp performs name's structural operation (create, expand,
// shrink, merge, split), updates st in place, and, for every operation
// except create, appends the op's accuracy/latency measurement to result.
func applyStructuralOp(
	cfg *Config,
	st *repState,
	result *report.RepetitionResult,
	name string,
	node SketchNode,
	width uint32,
	execIndex int,
	sharedPartitionSeed uint32,
	sharedSeeds []uint32,
	rng *rand.Rand,
) error {
	switch node.Operation {
	case "create":
		st.sketches[name] = resketch.New(resketch.Config{
			Depth:         cfg.SketchDepth,
			Width:         width,
			KLLK:          cfg.SketchKLLK,
			PartitionSeed: sharedPartitionSeed,
			RowSeeds:      append([]uint32(nil), sharedSeeds...),
			Rand:          rng,
		})
		st.groundTruths[name] = make(map[uint64]uint64)
		return nil

	case "expand":
		return applyResize(st, result, node, name, width, func(s *resketch.Sketch) error { return s.Expand(width) }, "expand")

	case "shrink":
		return applyResize(st, result, node, name, width, func(s *resketch.Sketch) error { return s.Shrink(width) }, "shrink")

	case "merge":
		return applyMerge(st, result, name, node)

	case "split":
		return applySplit(cfg, st, result, name, node, execIndex)

	default:
		return fmt.Errorf("dag: unknown operation %q for sketch %q", node.Operation, name)
	}
}

func applyResize(st *repState, result *report.RepetitionResult, node SketchNode, name string, width uint32, do func(*resketch.Sketch) error, opName string) error {
	sources := node.allSources()
	if len(sources) == 0 {
		return fmt.Errorf("dag: %s %q has no source", opName, name)
	}
	sourceName := sources[0]
	src, ok := st.sketches[sourceName]
	if !ok {
		return fmt.Errorf("dag: source sketch %q for %s not found", sourceName, opName)
	}

	start := time.Now()
	if err := do(src); err != nil {
		return fmt.Errorf("dag: %s %q: %w", opName, name, err)
	}
	latency := time.Since(start).Seconds()

	st.sketches[name] = src
	delete(st.sketches, sourceName)
	st.groundTruths[name] = st.groundTruths[sourceName]
	delete(st.groundTruths, sourceName)

	appendOpResult(result, name, opName, latency, st.sketches[name], st.groundTruths[name])
	return nil
}

func applyMerge(st *repState, result *report.RepetitionResult, name string, node SketchNode) error {
	sources := node.allSources()
	if len(sources) < 2 {
		return fmt.Errorf("dag: merge %q requires at least 2 sources", name)
	}
	for _, src := range sources {
		if _, ok := st.sketches[src]; !ok {
			return fmt.Errorf("dag: source sketch %q for merge not found", src)
		}
	}

	start := time.Now()
	merged, err := resketch.Merge(st.sketches[sources[0]], st.sketches[sources[1]])
	if err != nil {
		return fmt.Errorf("dag: merge %q: %w", name, err)
	}
	for _, src := range sources[2:] {
		merged, err = resketch.Merge(merged, st.sketches[src])
		if err != nil {
			return fmt.Errorf("dag: merge %q: %w", name, err)
		}
	}
	latency := time.Since(start).Seconds()

	st.sketches[name] = merged

	truth := make(map[uint64]uint64)
	for _, src := range sources {
		for item, freq := range st.groundTruths[src] {
			truth[item] += freq
		}
	}
	st.groundTruths[name] = truth

	appendOpResult(result, name, "merge", latency, merged, truth)
	return nil
}

func applySplit(cfg *Config, st *repState, result *report.RepetitionResult, name string, node SketchNode, execIndex int) error {
	sources := node.allSources()
	if len(sources) == 0 {
		return fmt.Errorf("dag: split %q has no source", name)
	}
	sourceName := sources[0]
	src, ok := st.sketches[sourceName]
	if !ok {
		return fmt.Errorf("dag: source sketch %q for split not found", sourceName)
	}

	if execIndex+1 >= len(cfg.ExecutionOrder) {
		return fmt.Errorf("dag: split %q requires a sibling immediately after it in execution order", name)
	}
	siblingName := cfg.ExecutionOrder[execIndex+1]
	sibling := cfg.Sketches[siblingName]
	siblingSources := sibling.allSources()
	if sibling.Operation != "split" || len(siblingSources) == 0 || siblingSources[0] != sourceName {
		return fmt.Errorf("dag: split sibling mismatch: expected %q to split from %q", siblingName, sourceName)
	}

	totalBudget := uint64(node.MemoryBudgetKB) + uint64(sibling.MemoryBudgetKB)
	if totalBudget == 0 {
		return fmt.Errorf("dag: split %q and %q must have a nonzero combined memory_budget_kb", name, siblingName)
	}
	sourceWidth := src.Width()
	w1 := uint32((uint64(sourceWidth) * uint64(node.MemoryBudgetKB)) / totalBudget)
	w2 := sourceWidth - w1

	start := time.Now()
	left, right, err := resketch.Split(src, w1, w2)
	if err != nil {
		return fmt.Errorf("dag: split %q: %w", name, err)
	}
	latency := time.Since(start).Seconds()

	st.sketches[name] = left
	st.sketches[siblingName] = right
	delete(st.sketches, sourceName)

	truthFirst := make(map[uint64]uint64)
	truthSecond := make(map[uint64]uint64)
	for item, freq := range st.groundTruths[sourceName] {
		if left.IsResponsibleFor(item) {
			truthFirst[item] = freq
		} else {
			truthSecond[item] = freq
		}
	}
	st.groundTruths[name] = truthFirst
	st.groundTruths[siblingName] = truthSecond
	delete(st.groundTruths, sourceName)

	appendOpResult(result, name, "split", latency, left, truthFirst)
	appendOpResult(result, siblingName, "split", latency, right, truthSecond)

	st.skipStructOp[siblingName] = true
	return nil
}

func appendOpResult(result *report.RepetitionResult, name, op string, latencyS float64, sketch *resketch.Sketch, truth map[uint64]uint64) {
	acc := report.Measure(sketch, truth)
	result.StructuralOp = append(result.StructuralOp, rpt(name, op, latencyS, sketch.MaxMemoryUsage()/1024, acc))
}

func rpt(name, op string, latencyS float64, memKB uint64, acc report.Accuracy) report.StructuralOpResult {
	return report.StructuralOpResult{
		SketchName:  name,
		Operation:   op,
		LatencyS:    latencyS,
		MemoryKB:    memKB,
		ARE:         acc.ARE,
		AAE:         acc.AAE,
		AREVariance: acc.AREVariance,
		AAEVariance: acc.AAEVariance,
	}
}

// processDatasets feeds each DatasetReference assigned to name's sketch
// node into that sketch, filtering by partition responsibility when the
// sketch does not have full domain coverage (i.e. it descends from a
// split), and records a checkpoint every cfg.CheckpointInterval items.
func processDatasets(cfg *Config, st *repState, result *report.RepetitionResult, name string, node SketchNode, datasets map[string][]uint64) error {
	if len(node.Datasets) == 0 {
		return nil
	}
	sketch, ok := st.sketches[name]
	if !ok {
		return fmt.Errorf("dag: sketch %q not found while processing datasets", name)
	}
	truth := st.groundTruths[name]

	for _, ref := range node.Datasets {
		data, ok := datasets[ref.DatasetName]
		if !ok {
			return fmt.Errorf("dag: dataset %q not found", ref.DatasetName)
		}

		ranges := sketch.PartitionRanges()
		fullCoverage := len(ranges) == 1 && ranges[0].Start == 0 && ranges[0].End == 0

		var feed []uint64
		if fullCoverage {
			end := ref.StartOffset + ref.NumItems
			if end > uint64(len(data)) {
				end = uint64(len(data))
			}
			feed = data[ref.StartOffset:end]
			for _, item := range feed {
				truth[item]++
			}
		} else {
			feed = make([]uint64, 0, ref.NumItems)
			collected := uint64(0)
			scan := ref.StartOffset
			for collected < ref.NumItems && scan < uint64(len(data)) {
				item := data[scan]
				if sketch.IsResponsibleFor(item) {
					feed = append(feed, item)
					truth[item]++
					collected++
				}
				scan++
			}
		}

		processWithCheckpoints(sketch, feed, name, cfg.CheckpointInterval, truth, result)
	}

	return nil
}

// processWithCheckpoints streams feed into sketch, emitting a Checkpoint
// every interval items (and a final one for any remainder).
func processWithCheckpoints(sketch *resketch.Sketch, feed []uint64, name string, interval uint64, truth map[uint64]uint64, result *report.RepetitionResult) {
	if interval == 0 {
		interval = uint64(len(feed))
		if interval == 0 {
			return
		}
	}

	start := time.Now()
	var processedInPhase uint64

	for i, item := range feed {
		sketch.Update(item)
		processedInPhase++

		last := i == len(feed)-1
		if processedInPhase%interval == 0 || last {
			elapsed := time.Since(start).Seconds()
			throughput := 0.0
			if elapsed > 0 {
				throughput = float64(processedInPhase) / elapsed / 1e6
			}

			queryStart := time.Now()
			for item := range truth {
				_ = sketch.Estimate(item)
			}
			queryElapsed := time.Since(queryStart).Seconds()
			queryThroughput := 0.0
			if queryElapsed > 0 && len(truth) > 0 {
				queryThroughput = float64(len(truth)) / queryElapsed / 1e6
			}

			acc := report.Measure(sketch, truth)
			result.Checkpoints = append(result.Checkpoints, report.Checkpoint{
				SketchName:          name,
				ItemsProcessed:      processedInPhase,
				ThroughputMops:      throughput,
				QueryThroughputMops: queryThroughput,
				MemoryKB:            sketch.MaxMemoryUsage() / 1024,
				ARE:                 acc.ARE,
				AAE:                 acc.AAE,
				AREVariance:         acc.AREVariance,
				AAEVariance:         acc.AAEVariance,
			})

			processedInPhase = 0
			start = time.Now()
		}
	}
}
