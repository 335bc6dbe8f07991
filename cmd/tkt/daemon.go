package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jordanwest/tkt/internal/cache"
	"github.com/jordanwest/tkt/internal/daemon"
	"github.com/jordanwest/tkt/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "advanced",
	Short:   "Run the background sync and cache daemon",
	Long: `Run the tkt daemon in the foreground.

The daemon watches the items directory, mirrors changes into the
SQLite query cache (.tkt/cache.db), and runs periodic sync passes
against the remote backend. Activity is logged to .tkt/daemon.log with
rotation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		interval, _ := cmd.Flags().GetDuration("sync-interval")
		noSync, _ := cmd.Flags().GetBool("no-sync")

		logger := log.New(&lumberjack.Logger{
			Filename:   e.paths.DaemonLog(),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}, "[daemon] ", log.LstdFlags)

		db, err := cache.Open(e.paths.CacheDB())
		if err != nil {
			return err
		}
		defer db.Close()

		manager := e.manager
		if noSync {
			manager = nil
		}

		config := daemon.DefaultConfig()
		config.SyncInterval = interval
		config.Logger = logger

		d, err := daemon.New(db, e.store, manager, config)
		if err != nil {
			return err
		}

		fmt.Printf("%s Daemon running (log: %s). Press Ctrl+C to stop.\n",
			ui.Pass("✓"), e.paths.DaemonLog())

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return d.Start(ctx)
	},
}

func init() {
	daemonCmd.Flags().Duration("sync-interval", 30*time.Second, "interval between sync passes")
	daemonCmd.Flags().Bool("no-sync", false, "maintain the cache without contacting the remote")
	rootCmd.AddCommand(daemonCmd)
}
