package cli

import (
	"fmt"

	"github.com/ppiankov/rootcheck/internal/heuristics"
	"github.com/ppiankov/rootcheck/internal/model"
	"github.com/ppiankov/rootcheck/internal/registry"
	"github.com/spf13/cobra"
)

var listCategory string

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered heuristics",
	Long: `List prints every heuristic in registration order with its category
and confidence. High-confidence findings decide the verdict alone;
medium-confidence findings must corroborate each other; low-confidence
findings are informational.

Example:
  rootcheck list
  rootcheck list --category debug-flags`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listCategory, "category", "", "only list heuristics in this category")
}

func runList(cmd *cobra.Command, args []string) error {
	var filter model.Category
	if listCategory != "" {
		c, err := model.ParseCategory(listCategory)
		if err != nil {
			return err
		}
		filter = c
	}

	reg, err := registry.NewWith(heuristics.Defaults(heuristics.Live("/"))...)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %-22s %s\n", "ID", "CATEGORY", "CONFIDENCE")

	count := 0
	for _, h := range reg.All() {
		if filter != "" && h.Category() != filter {
			continue
		}
		count++
		fmt.Fprintf(out, "%-20s %-22s %s\n", h.ID(), h.Category(), h.Confidence())
	}

	fmt.Fprintf(out, "\n%d heuristic(s)\n", count)
	return nil
}
