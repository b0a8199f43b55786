package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "propscan",
		Short:        "Resolve, estimate and score investment property listings",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("sources", "", "Sources YAML file (default $SOURCES_FILE or ./sources.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(sourcesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
