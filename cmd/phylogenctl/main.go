package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phylogen/pkg/phylogen"
)

var (
	flagStore string
	flagDB    string
)

var rootCmd = &cobra.Command{
	Use:           "phylogenctl",
	Short:         "Drive evolutionary optimization runs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "memory", "persistence backend (memory|sqlite)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "phylogen.db", "sqlite database path")
}

func newClient(ctx context.Context) (*phylogen.Client, error) {
	return phylogen.New(ctx, phylogen.Options{StoreKind: flagStore, DBPath: flagDB})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
