// Command resketch-dag loads a YAML-described DAG of sketch structural
// operations and dataset assignments, runs it, and writes the resulting
// accuracy/throughput report as JSON.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/resketch/resketch/dag"
	"github.com/resketch/resketch/report"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to the DAG YAML config (required)")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	logLevel := zerolog.InfoLevel
	if *verbose {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(logLevel).With().Timestamp().Logger()

	if *configPath == "" {
		log.Fatal().Msg("--config is required")
	}

	data, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("reading config")
	}

	cfg, err := dag.ParseConfig(data)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing config")
	}

	log.Info().
		Str("name", cfg.Name).
		Uint32("repetitions", cfg.Repetitions).
		Strs("execution_order", cfg.ExecutionOrder).
		Msg("running DAG")

	doc, err := dag.Run(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("DAG run failed")
	}

	outPath := report.TimestampedPath(cfg.OutputFile, time.Now())
	if err := report.Write(outPath, doc); err != nil {
		log.Fatal().Err(err).Str("path", outPath).Msg("writing report")
	}

	log.Info().Str("path", outPath).Msg("report written")
}
