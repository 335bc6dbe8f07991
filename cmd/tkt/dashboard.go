package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jordanwest/tkt/internal/cache"
	"github.com/jordanwest/tkt/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "advanced",
	Short:   "Start the real-time WebSocket dashboard",
	Long: `Start a WebSocket server broadcasting sync and item activity.

Messages include:
- sync_status: sync state transitions with pending count and errors
- item_update: items created, updated, or deleted locally
- stats: aggregate item counts by status, type, and priority

Connect a WebSocket client to ws://localhost:<port>/ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")

		db, err := cache.Open(e.paths.CacheDB())
		if err != nil {
			return err
		}
		defer db.Close()

		logger := log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
		server := dashboard.NewServer(&dashboard.Config{Port: port, Logger: logger})
		if err := server.Start(); err != nil {
			return err
		}

		handler := dashboard.NewHandler(server, db, logger)
		e.manager.Subscribe(handler.OnSyncStatus)
		handler.BroadcastStats()

		fmt.Printf("Dashboard listening on %s (WebSocket: /ws)\n", server.Addr())
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		return server.Stop()
	},
}

func init() {
	dashboardCmd.Flags().Int("port", 7319, "port to listen on")
	rootCmd.AddCommand(dashboardCmd)
}
