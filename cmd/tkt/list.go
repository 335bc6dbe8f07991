package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: "items",
	Short:   "List work items",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		iteration, _ := cmd.Flags().GetString("iteration")
		status, _ := cmd.Flags().GetString("status")
		assignee, _ := cmd.Flags().GetString("assignee")
		label, _ := cmd.Flags().GetString("label")

		items, err := e.store.List(iteration)
		if err != nil {
			return err
		}

		var filtered []*types.WorkItem
		for _, item := range items {
			if status != "" && item.Status != status {
				continue
			}
			if assignee != "" && item.Assignee != assignee {
				continue
			}
			if label != "" && !hasLabel(item, label) {
				continue
			}
			filtered = append(filtered, item)
		}

		if len(filtered) == 0 {
			fmt.Println(ui.Dim("No work items."))
			return nil
		}

		titleWidth := ui.Width(100) - 42
		if titleWidth < 20 {
			titleWidth = 20
		}

		fmt.Printf("%-12s %-12s %-10s %s\n",
			ui.Header("ID"), ui.Header("STATUS"), ui.Header("PRIORITY"), ui.Header("TITLE"))
		for _, item := range filtered {
			title := ui.Truncate(item.Title, titleWidth)
			if types.IsLocalID(item.ID) {
				title += " " + ui.Dim("(unsynced)")
			}
			fmt.Printf("%-12s %-12s %-10s %s\n",
				ui.Accent(item.ID), ui.Status(item.Status), ui.Priority(item.Priority), title)
		}
		return nil
	},
}

func hasLabel(item *types.WorkItem, label string) bool {
	for _, l := range item.Labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

func init() {
	listCmd.Flags().StringP("iteration", "i", "", "filter by iteration")
	listCmd.Flags().StringP("status", "s", "", "filter by status")
	listCmd.Flags().StringP("assignee", "a", "", "filter by assignee")
	listCmd.Flags().StringP("label", "l", "", "filter by label")
	rootCmd.AddCommand(listCmd)
}
