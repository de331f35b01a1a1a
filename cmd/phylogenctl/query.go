package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	statusCmd := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the current status of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			record, found, err := client.RunStatus(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("run not found: %s", args[0])
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "id\t%s\n", record.ID)
			fmt.Fprintf(w, "family\t%s\n", record.Family)
			fmt.Fprintf(w, "status\t%s\n", record.Status)
			fmt.Fprintf(w, "generation\t%d\n", record.CurrentGeneration)
			fmt.Fprintf(w, "best fitness\t%.6f\n", record.BestFitness)
			fmt.Fprintf(w, "avg fitness\t%.6f\n", record.AverageFitness)
			fmt.Fprintf(w, "diversity\t%.6f\n", record.Diversity)
			fmt.Fprintf(w, "created\t%s\n", record.CreatedAtUTC)
			if record.FinishedAtUTC != "" {
				fmt.Fprintf(w, "finished\t%s\n", record.FinishedAtUTC)
			}
			if record.Cancelled {
				fmt.Fprintf(w, "cancelled\ttrue\n")
			}
			if record.Error != "" {
				fmt.Fprintf(w, "error\t%s\n", record.Error)
			}
			return w.Flush()
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <run-id>",
		Short: "Print per-generation statistics for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			snapshots, found, err := client.GenerationHistory(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("run not found: %s", args[0])
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "gen\tbest\tavg\tworst\tdiversity\tsize\tfailures")
			for _, snap := range snapshots {
				fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.6f\t%.6f\t%d\t%d\n",
					snap.Generation, snap.BestFitness, snap.AverageFitness,
					snap.WorstFitness, snap.Diversity, snap.PopulationSize, snap.EvalFailures)
			}
			return w.Flush()
		},
	}

	bestCmd := &cobra.Command{
		Use:   "best <run-id>",
		Short: "Print the best individual of a finished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			best, found, err := client.BestIndividual(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no best individual recorded for run: %s", args[0])
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "individual\t%s\n", best.IndividualID)
			fmt.Fprintf(w, "family\t%s\n", best.Family)
			fmt.Fprintf(w, "fitness\t%.6f\n", best.Fitness)
			fmt.Fprintf(w, "generation\t%d\n", best.Generation)
			fmt.Fprintf(w, "age\t%d\n", best.Age)
			fmt.Fprintf(w, "mutations\t%d\n", best.MutationCount)
			fmt.Fprintf(w, "crossovers\t%d\n", best.CrossoverCount)
			if err := w.Flush(); err != nil {
				return err
			}

			// The stored genome payload is already JSON; re-indent for reading.
			var pretty json.RawMessage = best.Genome
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Request cancellation of an active run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.CancelRun(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancellation requested: %s\n", args[0])
			return nil
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List all known runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			records, err := client.Runs(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "id\tfamily\tstatus\tgen\tbest\tcreated")
			for _, record := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.6f\t%s\n",
					record.ID, record.Family, record.Status,
					record.CurrentGeneration, record.BestFitness, record.CreatedAtUTC)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(statusCmd, historyCmd, bestCmd, cancelCmd, runsCmd)
}
