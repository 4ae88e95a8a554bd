package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grupo-alfil/crm-backend/internal/importer"
)

var importXLSXPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import directory contacts from a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importXLSXPath == "" {
			return eris.New("--xlsx is required")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := importer.NewXLSXImporter(env.Contacts).ImportFile(cmd.Context(), importXLSXPath)
		if err != nil {
			return err
		}

		zap.L().Info("import finished",
			zap.String("file", importXLSXPath),
			zap.Int("created", result.Created),
			zap.Int("skipped", result.Skipped),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to the XLSX workbook")
	rootCmd.AddCommand(importCmd)
}
