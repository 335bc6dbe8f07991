package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Reconcile local state with the remote backend",
	Long: `Run a full sync pass against the configured remote backend.

The pass drains the mutation queue in order, remaps locally-minted ids
to server-assigned ones, then refreshes the local item set from the
remote. Entries the remote rejects stay queued with their error
recorded and are retried on the next pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		pending := e.queue.Len()
		fmt.Printf("%s Syncing %d pending mutation(s) via %s...\n",
			ui.Accent("→"), pending, e.adapter.Name())

		pushOnly, _ := cmd.Flags().GetBool("push-only")
		if pushOnly {
			err = e.manager.PushPending(ctx)
		} else {
			err = e.manager.Sync(ctx)
		}
		if err != nil {
			return err
		}

		status := e.manager.Status()
		if status.State == types.SyncStateError {
			fmt.Printf("%s Sync finished with %d error(s):\n", ui.Warn("!"), len(status.Errors))
			for _, se := range status.Errors {
				fmt.Printf("  %s %s\n", ui.Err("✗"), se.Message)
			}
			fmt.Printf("%d mutation(s) still pending.\n", status.PendingCount)
			return nil
		}

		fmt.Printf("%s Sync complete, %d pending.\n", ui.Pass("✓"), status.PendingCount)
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("push-only", false, "push queued mutations without pulling remote state")
	syncCmd.Flags().Duration("timeout", 2*time.Minute, "overall sync timeout")
	rootCmd.AddCommand(syncCmd)
}
