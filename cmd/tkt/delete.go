package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	GroupID: "items",
	Short:   "Delete a work item",
	Long: `Delete a work item from the local store.

Other items referencing it as a parent or dependency have those
references cleared. A delete is queued for the next sync pass; if the
item was never synced, the queued create is cancelled instead and the
remote is never contacted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		id := args[0]
		if err := e.store.Delete(id); err != nil {
			return err
		}
		if err := e.enqueue(types.ActionDelete, id, nil); err != nil {
			return err
		}

		fmt.Printf("%s Deleted %s\n", ui.Pass("✓"), ui.Accent(id))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
