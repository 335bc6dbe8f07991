package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/types"
	"github.com/jordanwest/tkt/internal/ui"
)

var commentCmd = &cobra.Command{
	Use:     "comment <id> <body>",
	GroupID: "items",
	Short:   "Add a comment to a work item",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		author, _ := cmd.Flags().GetString("author")
		if author == "" {
			author = defaultAuthor()
		}

		comment, err := e.store.AddComment(args[0], types.Comment{
			Author: author,
			Body:   args[1],
		})
		if err != nil {
			return err
		}
		if err := e.enqueue(types.ActionComment, args[0], comment); err != nil {
			return err
		}

		fmt.Printf("%s Commented on %s\n", ui.Pass("✓"), ui.Accent(args[0]))
		return nil
	},
}

func defaultAuthor() string {
	if v := os.Getenv("TKT_AUTHOR"); v != "" {
		return v
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return ""
}

func init() {
	commentCmd.Flags().String("author", "", "comment author (default: current user)")
	rootCmd.AddCommand(commentCmd)
}
