package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show sync state and pending mutations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Backend: %s\n", ui.Accent(e.adapter.Name()))
		if e.cfg.ProjectRef != "" {
			fmt.Printf("Project: %s\n", e.cfg.ProjectRef)
		}

		entries, err := e.queue.Read()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("Queue:   %s\n", ui.Pass("empty"))
			return nil
		}

		fmt.Printf("Queue:   %s\n", ui.Warn(fmt.Sprintf("%d pending", len(entries))))
		for _, entry := range entries {
			line := fmt.Sprintf("  %-8s %-12s queued %s",
				entry.Action, ui.Accent(entry.ItemID),
				entry.Timestamp.Local().Format(time.RFC822))
			fmt.Println(line)
			if entry.LastError != "" {
				fmt.Printf("           %s %s\n", ui.Err("last error:"), entry.LastError)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
