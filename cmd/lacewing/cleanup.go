package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	cleanupBefore string

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Delete executions (and their steps/context) started before a cutoff",
		RunE:  runCleanupCommand,
	}
)

func init() {
	cleanupCmd.Flags().StringVar(&cleanupBefore, "before", "720h", "cutoff as an RFC3339 timestamp or a duration to subtract from now (e.g. 720h)")
}

func runCleanupCommand(cmd *cobra.Command, args []string) error {
	cutoff, err := parseCutoff(cleanupBefore)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	affected, err := a.store.Executions.Cleanup(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("removed %d execution(s) started before %s\n", affected, cutoff.Format(time.RFC3339))
	return nil
}

// parseCutoff accepts either an absolute RFC3339 timestamp or a duration
// to subtract from the current time, matching the surface the
// inspector-serving command's cron.v3 schedule also uses.
func parseCutoff(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --before value %q: must be RFC3339 or a duration", raw)
	}
	return time.Now().UTC().Add(-d), nil
}
