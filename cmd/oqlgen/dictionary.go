package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osmquery/overpass-gen/internal/dictionary"
	"github.com/osmquery/overpass-gen/internal/overpass"
)

var dictionaryCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "List the phrases the generator understands",
	Long:  `List every feature and modifier phrase in the built-in dictionary together with the OSM tags it maps to.`,
	Args:  cobra.NoArgs,
	RunE:  runDictionary,
}

func runDictionary(cmd *cobra.Command, args []string) error {
	dict := dictionary.Default()

	fmt.Println("Features:")
	for _, entry := range dict.Features() {
		fmt.Printf("  %-24s %s\n", entry.Phrase, formatTags(entry.Tags))
	}

	fmt.Println("\nModifiers:")
	for _, entry := range dict.Modifiers() {
		fmt.Printf("  %-24s %s\n", entry.Phrase, formatTags(entry.Tags))
	}

	return nil
}

func formatTags(tags []overpass.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.Key + "=" + t.Value
	}
	return strings.Join(parts, " | ")
}
