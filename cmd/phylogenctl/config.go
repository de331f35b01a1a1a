package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"phylogen/internal/engine"
)

// runFileConfig mirrors the run flags in file form. YAML is the primary
// format; JSON files parse through the same decoder.
type runFileConfig struct {
	Objective        string  `yaml:"objective" json:"objective"`
	RunID            string  `yaml:"run_id" json:"run_id"`
	Population       int     `yaml:"population" json:"population"`
	MutationRate     float64 `yaml:"mutation_rate" json:"mutation_rate"`
	CrossoverRate    float64 `yaml:"crossover_rate" json:"crossover_rate"`
	EliteCount       int     `yaml:"elite_count" json:"elite_count"`
	TournamentSize   int     `yaml:"tournament_size" json:"tournament_size"`
	Generations      int     `yaml:"generations" json:"generations"`
	FitnessThreshold float64 `yaml:"fitness_threshold" json:"fitness_threshold"`
	Seed             int64   `yaml:"seed" json:"seed"`
	Workers          int     `yaml:"workers" json:"workers"`
	EvalTimeoutMS    int     `yaml:"eval_timeout_ms" json:"eval_timeout_ms"`
}

func loadRunFileConfig(path string) (runFileConfig, error) {
	var cfg runFileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse run config %s: %w", path, err)
	}
	return cfg, nil
}

// buildRunConfig merges a config file with flag values; a flag the user set
// explicitly wins over the file.
func buildRunConfig(cmd *cobra.Command, file runFileConfig, flags runFlags) (string, engine.RunConfig) {
	objective := file.Objective
	if cmd.Flags().Changed("objective") || objective == "" {
		objective = flags.objective
	}

	cfg := engine.RunConfig{
		RunID:            pickString(cmd, "run-id", flags.runID, file.RunID),
		PopulationSize:   pickInt(cmd, "pop", flags.population, file.Population),
		MutationRate:     pickFloat(cmd, "mutation-rate", flags.mutationRate, file.MutationRate),
		CrossoverRate:    pickFloat(cmd, "crossover-rate", flags.crossoverRate, file.CrossoverRate),
		EliteCount:       pickInt(cmd, "elites", flags.eliteCount, file.EliteCount),
		TournamentSize:   pickInt(cmd, "tournament", flags.tournamentSize, file.TournamentSize),
		MaxGenerations:   pickInt(cmd, "gens", flags.generations, file.Generations),
		FitnessThreshold: pickFloat(cmd, "threshold", flags.fitnessThreshold, file.FitnessThreshold),
		Seed:             pickInt64(cmd, "seed", flags.seed, file.Seed),
		Workers:          pickInt(cmd, "workers", flags.workers, file.Workers),
	}
	timeoutMS := pickInt(cmd, "eval-timeout-ms", flags.evalTimeoutMS, file.EvalTimeoutMS)
	if timeoutMS > 0 {
		cfg.EvalTimeout = time.Duration(timeoutMS) * time.Millisecond
	}
	return objective, cfg
}

func pickString(cmd *cobra.Command, name, flagValue, fileValue string) string {
	if cmd.Flags().Changed(name) || fileValue == "" {
		return flagValue
	}
	return fileValue
}

func pickInt(cmd *cobra.Command, name string, flagValue, fileValue int) int {
	if cmd.Flags().Changed(name) || fileValue == 0 {
		return flagValue
	}
	return fileValue
}

func pickInt64(cmd *cobra.Command, name string, flagValue, fileValue int64) int64 {
	if cmd.Flags().Changed(name) || fileValue == 0 {
		return flagValue
	}
	return fileValue
}

func pickFloat(cmd *cobra.Command, name string, flagValue, fileValue float64) float64 {
	if cmd.Flags().Changed(name) || fileValue == 0 {
		return flagValue
	}
	return fileValue
}
