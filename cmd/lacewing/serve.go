package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	serveCleanupSchedule string
	serveCleanupBefore   string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the background cleanup scheduler (inspector UI not yet implemented)",
		Long: `serve keeps a process alive that periodically runs Cleanup against the
Storage Adapter on a cron schedule. It is the inspector-serving command
named in spec.md §6; the inspector UI itself is a named external
collaborator and is not implemented here, only stubbed.`,
		RunE: runServeCommand,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveCleanupSchedule, "cleanup-schedule", "@daily", "cron expression for the periodic cleanup job")
	serveCmd.Flags().StringVar(&serveCleanupBefore, "cleanup-before", "720h", "cutoff passed to Cleanup on each scheduled run (RFC3339 or duration)")
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c := cron.New()
	_, err = c.AddFunc(serveCleanupSchedule, func() {
		cutoff, err := parseCutoff(serveCleanupBefore)
		if err != nil {
			a.logger.Error("serve: invalid cleanup cutoff: %v", err)
			return
		}
		affected, err := a.store.Executions.Cleanup(cmd.Context(), cutoff)
		if err != nil {
			a.logger.Error("serve: scheduled cleanup failed: %v", err)
			return
		}
		a.logger.Info("serve: scheduled cleanup removed %d execution(s) before %s", affected, cutoff.Format(time.RFC3339))
	})
	if err != nil {
		return fmt.Errorf("invalid --cleanup-schedule %q: %w", serveCleanupSchedule, err)
	}

	c.Start()
	defer c.Stop()

	fmt.Printf("serving: cleanup scheduled %q (cutoff %s); inspector UI not implemented, press Ctrl-C to stop\n", serveCleanupSchedule, serveCleanupBefore)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("shutting down")
	return nil
}
