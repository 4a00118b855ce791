package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oqlgen",
	Short: "Generate Overpass QL queries from natural language prompts",
	Long: `oqlgen turns prompts like "Find all cafes in Berlin" into validated
Overpass QL queries without needing the HTTP service.`,
}

func main() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(dictionaryCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
