// Package importer loads directory contacts from spreadsheet exports.
package importer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/grupo-alfil/crm-backend/internal/directorio"
)

// ContactCreator is the write surface the importer needs.
type ContactCreator interface {
	Create(ctx context.Context, c *directorio.Contact) error
}

// Result summarizes one import run.
type Result struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// XLSXImporter creates contacts from rows of an XLSX workbook.
type XLSXImporter struct {
	contacts ContactCreator
}

// NewXLSXImporter creates an XLSXImporter.
func NewXLSXImporter(contacts ContactCreator) *XLSXImporter {
	return &XLSXImporter{contacts: contacts}
}

// headerAliases maps spreadsheet header spellings to contact fields. The
// exports this feeds on come from several tools, so a few synonyms per
// column are accepted.
var headerAliases = map[string]string{
	"nombre_completo": "name",
	"nombre":          "name",
	"contacto":        "name",
	"email":           "email",
	"correo":          "email",
	"telefono_movil":  "phone",
	"telefono":        "phone",
	"celular":         "phone",
	"empresa":         "company",
	"compania":        "company",
	"origen":          "origin",
	"fuente":          "origin",
}

// ImportFile reads the first sheet of the workbook at path. The first row
// must be a header naming at least the contact name column. Rows without a
// name are skipped and counted, not failed.
func (imp *XLSXImporter) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("importer: first sheet is empty")
	}

	cols := map[string]int{}
	for j, cell := range sheet.Rows[0].Cells {
		key := strings.ToLower(strings.TrimSpace(cell.String()))
		if field, ok := headerAliases[key]; ok {
			if _, taken := cols[field]; !taken {
				cols[field] = j
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, eris.New("importer: no contact name column in header row")
	}

	log := zap.L().With(zap.String("component", "importer"), zap.String("file", path))
	result := &Result{}
	for i, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return result, eris.Wrap(ctx.Err(), "importer: cancelled")
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		at := func(field string) string {
			j, ok := cols[field]
			if !ok || j >= len(cells) {
				return ""
			}
			return cells[j]
		}

		c := &directorio.Contact{
			FullName:    at("name"),
			Email:       at("email"),
			MobilePhone: at("phone"),
			Company:     at("company"),
			Origin:      at("origin"),
		}
		if c.FullName == "" {
			result.Skipped++
			continue
		}
		if err := imp.contacts.Create(ctx, c); err != nil {
			return result, eris.Wrapf(err, "importer: create contact from row %d", i+2)
		}
		result.Created++
	}

	log.Info("import complete",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
