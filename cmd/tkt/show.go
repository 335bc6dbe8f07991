package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	GroupID: "items",
	Short:   "Show a work item in full",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		item, err := e.store.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s %s\n", ui.Accent(item.ID), ui.Header(item.Title))
		if types.IsLocalID(item.ID) {
			fmt.Println(ui.Dim("not yet synced to the remote"))
		}
		fmt.Println()

		printField("Type", item.Type)
		printField("Status", ui.Status(item.Status))
		printField("Priority", ui.Priority(item.Priority))
		printField("Iteration", item.Iteration)
		printField("Assignee", item.Assignee)
		printField("Labels", strings.Join(item.Labels, ", "))
		printField("Parent", item.Parent)
		printField("Depends on", strings.Join(item.DependsOn, ", "))
		if item.Due != nil {
			printField("Due", item.Due.Local().Format("2006-01-02"))
		}
		printField("Created", item.CreatedAt.Local().Format(time.RFC822))
		printField("Updated", item.UpdatedAt.Local().Format(time.RFC822))

		if item.Description != "" {
			fmt.Printf("\n%s\n", item.Description)
		}

		if len(item.Comments) > 0 {
			fmt.Printf("\n%s\n", ui.Header(fmt.Sprintf("Comments (%d)", len(item.Comments))))
			for _, c := range item.Comments {
				author := c.Author
				if author == "" {
					author = "anonymous"
				}
				fmt.Printf("%s %s\n  %s\n",
					ui.Accent(author),
					ui.Dim(c.CreatedAt.Local().Format(time.RFC822)),
					c.Body)
			}
		}
		return nil
	},
}

func printField(name, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %-12s %s\n", ui.Dim(name+":"), value)
}

func init() {
	rootCmd.AddCommand(showCmd)
}
