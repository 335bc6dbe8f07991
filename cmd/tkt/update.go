package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	GroupID: "items",
	Short:   "Update fields of a work item",
	Long: `Apply a partial update to a work item.

Only flags you pass change the item. Passing an empty value clears the
field: --parent "" detaches the item from its parent. An update is
queued for the next sync pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		patch := &types.ItemPatch{}
		flags := cmd.Flags()

		if flags.Changed("title") {
			v, _ := flags.GetString("title")
			if v == "" {
				return fmt.Errorf("title cannot be empty")
			}
			patch.Title = &v
		}
		if flags.Changed("description") {
			v, _ := flags.GetString("description")
			patch.Description = &v
		}
		if flags.Changed("type") {
			v, _ := flags.GetString("type")
			patch.Type = &v
		}
		if flags.Changed("status") {
			v, _ := flags.GetString("status")
			patch.Status = &v
		}
		if flags.Changed("iteration") {
			v, _ := flags.GetString("iteration")
			patch.Iteration = &v
		}
		if flags.Changed("priority") {
			v, _ := flags.GetString("priority")
			p := types.Priority(v)
			if !p.IsValid() {
				return fmt.Errorf("invalid priority %q (one of: %v)", v, types.Priorities())
			}
			patch.Priority = &p
		}
		if flags.Changed("assignee") {
			v, _ := flags.GetString("assignee")
			patch.Assignee = &v
		}
		if flags.Changed("label") {
			v, _ := flags.GetStringSlice("label")
			patch.Labels = &v
		}
		if flags.Changed("parent") {
			v, _ := flags.GetString("parent")
			patch.Parent = &v
		}
		if flags.Changed("depends-on") {
			v, _ := flags.GetStringSlice("depends-on")
			patch.DependsOn = &v
		}
		if flags.Changed("due") {
			v, _ := flags.GetString("due")
			if v == "" {
				patch.ClearDue = true
			} else {
				due, err := parseDue(v)
				if err != nil {
					return err
				}
				patch.Due = due
			}
		}

		updated, err := e.store.Update(args[0], patch)
		if err != nil {
			return err
		}
		if err := e.enqueue(types.ActionUpdate, updated.ID, nil); err != nil {
			return err
		}

		fmt.Printf("%s Updated %s\n", ui.Pass("✓"), ui.Accent(updated.ID))
		return nil
	},
}

func init() {
	updateCmd.Flags().String("title", "", "new title")
	updateCmd.Flags().StringP("description", "d", "", "new description")
	updateCmd.Flags().StringP("type", "t", "", "new type")
	updateCmd.Flags().StringP("status", "s", "", "new status")
	updateCmd.Flags().StringP("priority", "p", "", "new priority")
	updateCmd.Flags().StringP("iteration", "i", "", "new iteration (empty clears)")
	updateCmd.Flags().StringP("assignee", "a", "", "new assignee (empty clears)")
	updateCmd.Flags().StringSliceP("label", "l", nil, "replacement label set")
	updateCmd.Flags().String("parent", "", "new parent id (empty clears)")
	updateCmd.Flags().StringSlice("depends-on", nil, "replacement dependency set")
	updateCmd.Flags().String("due", "", "new due date (empty clears)")
	rootCmd.AddCommand(updateCmd)
}
