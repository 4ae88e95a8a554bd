package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grupo-alfil/crm-backend/internal/backup"
)

var (
	backupDir   string
	backupEvery time.Duration
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the CRM data into a local SQLite file",
	Long:  "Copies the contact directory and every readable policy line into a timestamped SQLite file. With --every the command keeps running and snapshots on an interval until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		dir := backupDir
		if dir == "" {
			dir = cfg.Backup.Dir
		}
		snap := backup.NewSnapshotter(env.Contacts, env.Policies, dir)

		runOnce := func() error {
			result, err := snap.Snapshot(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		if backupEvery <= 0 {
			return runOnce()
		}

		if err := runOnce(); err != nil {
			return err
		}
		ticker := time.NewTicker(backupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				zap.L().Info("backup loop stopped")
				return nil
			case <-ticker.C:
				if err := runOnce(); err != nil {
					zap.L().Error("scheduled snapshot failed", zap.Error(err))
				}
			}
		}
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "snapshot directory (default from config)")
	backupCmd.Flags().DurationVar(&backupEvery, "every", 0, "snapshot interval, e.g. 24h (default: run once)")
	rootCmd.AddCommand(backupCmd)
}
