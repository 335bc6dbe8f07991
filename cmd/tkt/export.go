package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/migrate"
	"github.com/jordanwest/tkt/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export [file]",
	GroupID: "advanced",
	Short:   "Export all work items to JSON, JSONL, or YAML",
	Long: `Export the local item set.

The format is chosen from the file extension (.json, .jsonl, .yaml).
With no file argument, JSON is written to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		items, err := e.store.List("")
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return migrate.Export(os.Stdout, migrate.FormatJSON, items)
		}

		if err := migrate.ExportFile(args[0], items); err != nil {
			return err
		}
		fmt.Printf("%s Exported %d item(s) to %s\n", ui.Pass("✓"), len(items), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
