package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/errors"
	"github.com/osmquery/overpass-gen/internal/processor"
	"github.com/osmquery/overpass-gen/internal/taginfo"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] <prompt>",
	Short: "Generate a query from a single prompt",
	Long: `Generate an Overpass QL query from a natural language prompt.

By default generation runs fully offline against the built-in phrase
dictionary. With --lookup, unknown and resolved tags are checked against
the taginfo API.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("format", "json", "output format for the generated query (json|xml|geojson)")
	generateCmd.Flags().Bool("lookup", false, "ground resolved tags against the taginfo API")
	generateCmd.Flags().Duration("lookup-timeout", 2*time.Second, "per-tag taginfo lookup timeout")
	generateCmd.Flags().Bool("json", false, "print the full response as JSON instead of just the query")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	useLookup, err := cmd.Flags().GetBool("lookup")
	if err != nil {
		return fmt.Errorf("failed to get lookup flag: %w", err)
	}

	lookupTimeout, err := cmd.Flags().GetDuration("lookup-timeout")
	if err != nil {
		return fmt.Errorf("failed to get lookup-timeout flag: %w", err)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}

	var lookup processor.TagLookup
	if useLookup {
		lookup = taginfo.NewClient(taginfo.DefaultBaseURL, 10*time.Second)
	}

	qg := processor.NewQueryGenerator(dictionary.Default(), lookup, nil, nil, processor.GeneratorConfig{
		LookupTimeout: lookupTimeout,
	})

	response, err := qg.Generate(cmd.Context(), &processor.GenerateRequest{
		Prompt: prompt,
		Format: format,
	})
	if err != nil {
		if enhanced, ok := err.(*errors.EnhancedError); ok {
			fmt.Fprintf(os.Stderr, "Error: %s\n", enhanced.Message)
			if enhanced.Suggestion != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", enhanced.Suggestion)
			}
			os.Exit(1)
		}
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(strings.TrimRight(response.Query, "\n"))
	for _, diag := range response.Diagnostics {
		fmt.Fprintf(os.Stderr, "Warning (%s): %s\n", diag.Kind, diag.Message)
	}

	return nil
}
