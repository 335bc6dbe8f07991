package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/config"
	"github.com/jordanwest/tkt/internal/remote"
	"github.com/jordanwest/tkt/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "items",
	Short:   "Create a .tkt workspace in the current directory",
	Long: `Initialize a tkt workspace.

Creates the .tkt directory with an items store, an empty mutation
queue, and a config.toml recording the remote backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _ := cmd.Flags().GetString("backend")
		projectRef, _ := cmd.Flags().GetString("project")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root := filepath.Join(cwd, config.DirName)
		paths := config.Paths{Root: root}

		if _, err := os.Stat(paths.ConfigFile()); err == nil {
			return fmt.Errorf("workspace already initialized at %s", root)
		}

		// Fail before writing anything if the backend is unknown.
		if _, err := remote.Open(backend, projectRef); err != nil {
			return err
		}

		if err := os.MkdirAll(paths.Items(), 0755); err != nil {
			return fmt.Errorf("failed to create items directory: %w", err)
		}

		cfg := config.Default()
		cfg.Backend = backend
		cfg.ProjectRef = projectRef
		cfg.SetPath(paths.ConfigFile())
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Printf("%s Initialized workspace at %s (backend: %s)\n", ui.Pass("✓"), root, backend)
		return nil
	},
}

func init() {
	initCmd.Flags().String("backend", "memory", "remote backend name")
	initCmd.Flags().String("project", "", "remote project reference")
	rootCmd.AddCommand(initCmd)
}
