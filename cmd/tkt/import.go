package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/migrate"
	"github.com/jordanwest/tkt/internal/store"
	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "advanced",
	Short:   "Import work items from JSON, JSONL, or YAML",
	Long: `Import an item set produced by 'tkt export'.

Imported items keep their ids. Existing items with the same id are
overwritten unless --skip-existing is set. Imported items are not
queued for sync; run 'tkt sync' afterwards if the remote should
receive them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		skipExisting, _ := cmd.Flags().GetBool("skip-existing")

		items, err := migrate.ImportFile(args[0])
		if err != nil {
			return err
		}

		imported, skipped := 0, 0
		for _, item := range items {
			if skipExisting {
				if _, err := e.store.Get(item.ID); err == nil {
					skipped++
					continue
				} else if !errors.Is(err, types.ErrNotFound) {
					return err
				}
			}
			if err := store.WriteItemFile(e.paths.Items(), item); err != nil {
				return err
			}
			imported++
		}

		fmt.Printf("%s Imported %d item(s)", ui.Pass("✓"), imported)
		if skipped > 0 {
			fmt.Printf(", skipped %d existing", skipped)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("skip-existing", false, "keep existing items instead of overwriting")
	rootCmd.AddCommand(importCmd)
}
