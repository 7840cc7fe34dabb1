package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/schema"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored dialogue snapshots",
}

// pruner is implemented by stores that can drop old snapshots in bulk.
type pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// withStore opens the configured store for the duration of fn. The closer
// is the raw backend, if it needs closing.
func withStore(cmd *cobra.Command, fn func(store ports.SnapshotStore, backend io.Closer) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, _, closer, err := cli.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	return fn(store, closer)
}

var sessionListCmd = &cobra.Command{
	Use:     "ls <client>",
	Aliases: []string{"list"},
	Short:   "List the dialogues stored for a client",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SnapshotStore, _ io.Closer) error {
			dialogues, err := store.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(dialogues) == 0 {
				printf(cmd, "No dialogues stored for %s.\n", args[0])
				return nil
			}
			for _, d := range dialogues {
				printf(cmd, "%s\n", d)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <client> <dialogue>",
	Short: "Print a stored snapshot as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SnapshotStore, _ io.Closer) error {
			snap, err := store.Load(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				return err
			}
			// Payloads that no longer fit their kind are dropped on the next turn.
			for _, verr := range schema.ValidationErrors(schema.ValidateSnapshot(snap)) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", verr)
			}
			return nil
		})
	},
}

var sessionRemoveCmd = &cobra.Command{
	Use:     "rm <client> <dialogue>...",
	Aliases: []string{"delete"},
	Short:   "Delete stored snapshots",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SnapshotStore, _ io.Closer) error {
			for _, d := range args[1:] {
				if err := store.Delete(cmd.Context(), args[0], d); err != nil {
					return err
				}
				printf(cmd, "Deleted %s/%s\n", args[0], d)
			}
			return nil
		})
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots idle for longer than --older-than (sqlite only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		return withStore(cmd, func(_ ports.SnapshotStore, backend io.Closer) error {
			p, ok := backend.(pruner)
			if !ok {
				return fmt.Errorf("the configured store does not support pruning")
			}
			n, err := p.Prune(cmd.Context(), time.Now().Add(-age))
			if err != nil {
				return err
			}
			printf(cmd, "Pruned %d snapshots\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionInspectCmd, sessionRemoveCmd, sessionPruneCmd)
	sessionPruneCmd.Flags().Duration("older-than", 24*time.Hour, "Minimum idle time of pruned snapshots")
}
