package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var createCmd = &cobra.Command{
	Use:     "create [title]",
	GroupID: "items",
	Short:   "Create a work item",
	Long: `Create a work item in the local store.

The item is assigned a local id immediately and a create is queued for
the next sync pass. With no title argument, an interactive form opens.

Due dates accept natural language:
  tkt create "Ship the report" --due "next friday"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		item := &types.WorkItem{}
		if len(args) > 0 {
			item.Title = args[0]
		}
		item.Description, _ = cmd.Flags().GetString("description")
		item.Type, _ = cmd.Flags().GetString("type")
		item.Status, _ = cmd.Flags().GetString("status")
		item.Iteration, _ = cmd.Flags().GetString("iteration")
		item.Assignee, _ = cmd.Flags().GetString("assignee")
		item.Labels, _ = cmd.Flags().GetStringSlice("label")
		item.Parent, _ = cmd.Flags().GetString("parent")
		item.DependsOn, _ = cmd.Flags().GetStringSlice("depends-on")

		if p, _ := cmd.Flags().GetString("priority"); p != "" {
			item.Priority = types.Priority(p)
			if !item.Priority.IsValid() {
				return fmt.Errorf("invalid priority %q (one of: %v)", p, types.Priorities())
			}
		}

		if dueText, _ := cmd.Flags().GetString("due"); dueText != "" {
			due, err := parseDue(dueText)
			if err != nil {
				return err
			}
			item.Due = due
		}

		if item.Title == "" {
			if err := createForm(e, item); err != nil {
				return err
			}
		}

		created, err := e.store.Create(item)
		if err != nil {
			return err
		}
		if err := e.enqueue(types.ActionCreate, created.ID, nil); err != nil {
			return err
		}

		fmt.Printf("%s Created %s: %s\n", ui.Pass("✓"), ui.Accent(created.ID), created.Title)
		return nil
	},
}

// createForm collects the remaining fields interactively.
func createForm(e *env, item *types.WorkItem) error {
	statuses := e.cfg.Statuses
	itemTypes := e.cfg.Types

	priority := string(types.DefaultPriority)
	var priorityOpts []huh.Option[string]
	for _, p := range types.Priorities() {
		priorityOpts = append(priorityOpts, huh.NewOption(string(p), string(p)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&item.Title).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Value(&item.Description),
			huh.NewSelect[string]().
				Title("Type").
				Options(huh.NewOptions(itemTypes...)...).
				Value(&item.Type),
			huh.NewSelect[string]().
				Title("Status").
				Options(huh.NewOptions(statuses...)...).
				Value(&item.Status),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOpts...).
				Value(&priority),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	item.Priority = types.Priority(priority)
	return nil
}

// parseDue turns a natural-language date ("next friday", "in 2 weeks")
// or an RFC 3339 date into a due time.
func parseDue(text string) (*time.Time, error) {
	if t, err := time.Parse("2006-01-02", text); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		t = t.UTC()
		return &t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(text, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to parse due date %q: %w", text, err)
	}
	if r == nil {
		return nil, fmt.Errorf("could not understand due date %q", text)
	}
	t := r.Time.UTC()
	return &t, nil
}

func init() {
	createCmd.Flags().StringP("description", "d", "", "item description")
	createCmd.Flags().StringP("type", "t", "", "item type (bug, feature, task, ...)")
	createCmd.Flags().StringP("status", "s", "", "initial status")
	createCmd.Flags().StringP("priority", "p", "", "priority (low, medium, high, critical)")
	createCmd.Flags().StringP("iteration", "i", "", "iteration / sprint")
	createCmd.Flags().StringP("assignee", "a", "", "assignee")
	createCmd.Flags().StringSliceP("label", "l", nil, "labels (repeatable)")
	createCmd.Flags().String("parent", "", "parent item id")
	createCmd.Flags().StringSlice("depends-on", nil, "dependency item ids")
	createCmd.Flags().String("due", "", "due date (natural language or YYYY-MM-DD)")
	rootCmd.AddCommand(createCmd)
}
