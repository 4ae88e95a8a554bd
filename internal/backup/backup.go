// Package backup mirrors the contact directory and the policy line tables
// into timestamped local SQLite files. Snapshots are best-effort: a source
// table that cannot be read is logged and skipped, the rest of the snapshot
// still lands.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/grupo-alfil/crm-backend/internal/directorio"
	"github.com/grupo-alfil/crm-backend/internal/poliza"
)

// ContactSource provides paged access to the contact directory.
type ContactSource interface {
	List(ctx context.Context, f directorio.Filter) (*directorio.Page, error)
}

// PolicySource provides the policy line tables.
type PolicySource interface {
	Lines() []string
	ListPolicyholders(ctx context.Context, line string) ([]poliza.Policyholder, error)
}

// Result describes one finished snapshot.
type Result struct {
	SnapshotID   string   `json:"snapshot_id"`
	Path         string   `json:"path"`
	TablesCopied int      `json:"tables_copied"`
	RowsCopied   int64    `json:"rows_copied"`
	Skipped      []string `json:"skipped,omitempty"`
}

// Snapshotter writes SQLite snapshots of the CRM data.
type Snapshotter struct {
	contacts ContactSource
	policies PolicySource
	dir      string
}

// NewSnapshotter creates a Snapshotter writing into dir.
func NewSnapshotter(contacts ContactSource, policies PolicySource, dir string) *Snapshotter {
	return &Snapshotter{contacts: contacts, policies: policies, dir: dir}
}

const metaMigration = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id            TEXT PRIMARY KEY,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME NOT NULL,
	tables_copied INTEGER NOT NULL,
	rows_copied   INTEGER NOT NULL,
	skipped       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS directorio_contactos (
	id              INTEGER PRIMARY KEY,
	nombre_completo TEXT NOT NULL,
	empresa         TEXT NOT NULL DEFAULT '',
	telefono_movil  TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	origen          TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT '',
	pais            TEXT NOT NULL DEFAULT '',
	created_at      DATETIME,
	updated_at      DATETIME
);
`

// Snapshot copies the directory and every readable policy line into a new
// timestamped SQLite file under the snapshot directory.
func (s *Snapshotter) Snapshot(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("component", "backup"))
	started := time.Now().UTC()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "backup: create snapshot dir")
	}
	path := filepath.Join(s.dir, fmt.Sprintf("crm-backup-%s.db", started.Format("20060102-150405")))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "backup: open snapshot file")
	}
	defer db.Close()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, eris.Wrapf(err, "backup: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, metaMigration); err != nil {
		return nil, eris.Wrap(err, "backup: migrate snapshot schema")
	}

	result := &Result{SnapshotID: uuid.NewString(), Path: path}

	rows, err := s.copyContacts(ctx, db)
	if err != nil {
		log.Warn("contact snapshot skipped", zap.Error(err))
		result.Skipped = append(result.Skipped, "directorio_contactos")
	} else {
		result.TablesCopied++
		result.RowsCopied += rows
	}

	for _, line := range s.policies.Lines() {
		rows, err := s.copyLine(ctx, db, line)
		if err != nil {
			log.Warn("policy line snapshot skipped", zap.String("line", line), zap.Error(err))
			result.Skipped = append(result.Skipped, line)
			continue
		}
		result.TablesCopied++
		result.RowsCopied += rows
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, started_at, finished_at, tables_copied, rows_copied, skipped)
		VALUES (?, ?, ?, ?, ?, ?)`,
		result.SnapshotID, started, time.Now().UTC(), result.TablesCopied, result.RowsCopied,
		strings.Join(result.Skipped, ","),
	); err != nil {
		return nil, eris.Wrap(err, "backup: write snapshot meta")
	}

	log.Info("snapshot complete",
		zap.String("snapshot_id", result.SnapshotID),
		zap.String("path", path),
		zap.Int("tables", result.TablesCopied),
		zap.Int64("rows", result.RowsCopied),
		zap.Strings("skipped", result.Skipped),
	)
	return result, nil
}

func (s *Snapshotter) copyContacts(ctx context.Context, db *sql.DB) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "backup: begin contacts tx")
	}
	defer tx.Rollback()

	var copied int64
	for page := 1; ; page++ {
		p, err := s.contacts.List(ctx, directorio.Filter{Page: page, Limit: 200})
		if err != nil {
			return 0, eris.Wrap(err, "backup: list contacts")
		}
		for _, c := range p.Contacts {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO directorio_contactos
				(id, nombre_completo, empresa, telefono_movil, email, origen, status, pais, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.FullName, c.Company, c.MobilePhone, c.Email,
				c.Origin, c.Status, c.Country, c.CreatedAt, c.UpdatedAt,
			); err != nil {
				return 0, eris.Wrapf(err, "backup: copy contact %d", c.ID)
			}
			copied++
		}
		if page >= p.TotalPages || len(p.Contacts) == 0 {
			break
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "backup: commit contacts")
	}
	return copied, nil
}

func (s *Snapshotter) copyLine(ctx context.Context, db *sql.DB, line string) (int64, error) {
	holders, err := s.policies.ListPolicyholders(ctx, line)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "backup: begin %s tx", line)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			contratante   TEXT NOT NULL,
			email         TEXT NOT NULL DEFAULT '',
			numero_poliza TEXT NOT NULL DEFAULT '',
			ramo          TEXT NOT NULL DEFAULT ''
		)`, line)); err != nil {
		return 0, eris.Wrapf(err, "backup: create mirror table %s", line)
	}

	var copied int64
	for _, h := range holders {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (contratante, email, numero_poliza, ramo) VALUES (?, ?, ?, ?)`, line),
			h.Contratante, h.Email, h.NumeroPoliza, h.Ramo,
		); err != nil {
			return 0, eris.Wrapf(err, "backup: copy row into %s", line)
		}
		copied++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "backup: commit %s", line)
	}
	return copied, nil
}
