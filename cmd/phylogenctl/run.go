package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"phylogen/internal/objective"
)

type runFlags struct {
	configPath       string
	objective        string
	runID            string
	population       int
	mutationRate     float64
	crossoverRate    float64
	eliteCount       int
	tournamentSize   int
	generations      int
	fitnessThreshold float64
	seed             int64
	workers          int
	evalTimeoutMS    int
	noWait           bool
}

func init() {
	flags := runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an evolution run against a built-in objective",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "run config file (yaml or json)")
	cmd.Flags().StringVar(&flags.objective, "objective", "sphere", "built-in objective name")
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "explicit run id (default generated)")
	cmd.Flags().IntVar(&flags.population, "pop", 30, "population size")
	cmd.Flags().Float64Var(&flags.mutationRate, "mutation-rate", 0.1, "per-unit mutation probability")
	cmd.Flags().Float64Var(&flags.crossoverRate, "crossover-rate", 0.8, "crossover probability per offspring")
	cmd.Flags().IntVar(&flags.eliteCount, "elites", 3, "elites carried unchanged per generation")
	cmd.Flags().IntVar(&flags.tournamentSize, "tournament", 3, "tournament size for parent selection")
	cmd.Flags().IntVar(&flags.generations, "gens", 50, "generation budget")
	cmd.Flags().Float64Var(&flags.fitnessThreshold, "threshold", 0.9, "convergence fitness threshold")
	cmd.Flags().Int64Var(&flags.seed, "seed", 1, "rng seed")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "evaluation workers (0 = NumCPU)")
	cmd.Flags().IntVar(&flags.evalTimeoutMS, "eval-timeout-ms", 0, "per-evaluation timeout in milliseconds (0 = none)")
	cmd.Flags().BoolVar(&flags.noWait, "no-wait", false, "return after starting without waiting for completion")

	rootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, flags runFlags) error {
	ctx := cmd.Context()

	fileCfg, err := loadRunFileConfig(flags.configPath)
	if err != nil {
		return err
	}
	objectiveName, cfg := buildRunConfig(cmd, fileCfg, flags)

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	runID, err := client.StartObjectiveRun(ctx, objectiveName, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run started: %s (objective=%s)\n", runID, objectiveName)

	if flags.noWait {
		return nil
	}

	if err := client.WaitForRun(ctx, runID); err != nil {
		return err
	}

	record, found, err := client.RunStatus(ctx, runID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("run not found after completion: %s", runID)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "status\t%s\n", record.Status)
	fmt.Fprintf(w, "generations\t%d\n", record.CurrentGeneration)
	fmt.Fprintf(w, "best fitness\t%.6f\n", record.BestFitness)
	fmt.Fprintf(w, "avg fitness\t%.6f\n", record.AverageFitness)
	fmt.Fprintf(w, "diversity\t%.6f\n", record.Diversity)
	if record.Cancelled {
		fmt.Fprintf(w, "cancelled\ttrue\n")
	}
	if record.Error != "" {
		fmt.Fprintf(w, "error\t%s\n", record.Error)
	}
	return w.Flush()
}

func init() {
	cmd := &cobra.Command{
		Use:   "objectives",
		Short: "List the built-in objectives",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range objective.Names() {
				obj, err := objective.Resolve(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", obj.Name, obj.Family, obj.Description)
			}
			return w.Flush()
		},
	}
	rootCmd.AddCommand(cmd)
}
