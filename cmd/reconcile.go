package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Promote matched prospects to clients",
	Long:  "Runs a full relationship scan and flips every matched contact still in 'prospecto' to 'cliente'. Safe to re-run: a second pass over unchanged data updates zero rows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Reconciler.Reconcile(cmd.Context())
		if err != nil {
			return err
		}

		zap.L().Info("reconcile complete",
			zap.Int64("updated", result.UpdatedCount),
			zap.Int("matched_contacts", len(result.UpdatedContactIDs)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
