package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jordanwest/tkt/internal/config"
	"github.com/jordanwest/tkt/internal/queue"
	"github.com/jordanwest/tkt/internal/remote"
	_ "github.com/jordanwest/tkt/internal/remote/memory"
	"github.com/jordanwest/tkt/internal/store"
	"github.com/jordanwest/tkt/internal/syncer"
	"github.com/jordanwest/tkt/internal/types"
)

var rootCmd = &cobra.Command{
	Use:   "tkt",
	Short: "Local-first work item tracking",
	Long: `tkt is a local-first work item tracker.

Items live as JSON files under .tkt/ in your repository and every
command works offline. Mutations queue locally and drain to the
configured remote backend (sprint board, issue tracker) on the next
sync pass.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "items", Title: "Work Items:"},
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
		&cobra.Group{ID: "advanced", Title: "Advanced:"},
	)

	rootCmd.PersistentFlags().String("dir", "", "workspace root (default: walk up to the nearest .tkt)")

	viper.SetEnvPrefix("TKT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Optional user-level config; workspace config.toml still wins.
	if home, err := os.UserHomeDir(); err == nil {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath(filepath.Join(home, ".config", "tkt"))
		_ = viper.ReadInConfig()
	}
}

// env bundles everything a command needs to operate on a workspace.
type env struct {
	paths   config.Paths
	cfg     *config.Config
	adapter remote.Adapter
	store   *store.Store
	queue   *queue.Queue
	manager *syncer.Manager
}

// openEnv locates the workspace and wires up the store, queue, adapter,
// and sync manager.
func openEnv(cmd *cobra.Command) (*env, error) {
	root, _ := cmd.Flags().GetString("dir")
	if root == "" {
		root = config.FindDir()
	}
	if root == "" {
		return nil, fmt.Errorf("no %s directory found (run 'tkt init' first)", config.DirName)
	}

	paths := config.Paths{Root: root}
	cfg, err := config.Load(paths.ConfigFile())
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if v := viper.GetString("backend"); v != "" {
		backend = v
	}
	projectRef := cfg.ProjectRef
	if v := viper.GetString("project"); v != "" {
		projectRef = v
	}

	adapter, err := remote.Open(backend, projectRef)
	if err != nil {
		return nil, err
	}

	st := store.New(paths.Items(), adapter.GetCapabilities(), cfg.MintLocalID)
	if err := st.Init(); err != nil {
		return nil, err
	}
	q := queue.New(paths.Queue())

	return &env{
		paths:   paths,
		cfg:     cfg,
		adapter: adapter,
		store:   st,
		queue:   q,
		manager: syncer.New(st, q, adapter, cfg, nil),
	}, nil
}

// enqueue records a local mutation for the next sync pass.
func (e *env) enqueue(action types.Action, itemID string, comment *types.Comment) error {
	return e.queue.Append(types.QueueEntry{
		Action:    action,
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
		Comment:   comment,
	})
}
