package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/grupo-alfil/crm-backend/internal/match"
)

var relationshipsFormat string

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "Scan every policy line for contacts that hold policies",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Finder.FindRelationships(cmd.Context())
		if err != nil {
			return err
		}

		zap.L().Info("relationship scan complete",
			zap.Int("relationships", report.Summary.TotalRelationships),
			zap.Int("contacts", report.Summary.ContactsWithPolicies),
			zap.Bool("partial", report.Partial),
		)
		return writeReport(os.Stdout, report, relationshipsFormat)
	},
}

// writeReport prints a scan report as json or yaml.
func writeReport(w io.Writer, report *match.RelationshipReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "encode report as json")
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "encode report as yaml")
		}
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}
	return nil
}

func init() {
	relationshipsCmd.Flags().StringVar(&relationshipsFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(relationshipsCmd)
}
