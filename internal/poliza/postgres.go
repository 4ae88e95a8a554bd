package poliza

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/grupo-alfil/crm-backend/internal/db"
)

// PostgresStore implements PolicyStore using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// knownLines allow-lists table identifiers before they are interpolated into
// query text. Line names never come from user input, but the table name
// cannot be a bind parameter, so the gate stays here.
var knownLines = func() map[string]bool {
	m := make(map[string]bool, len(Lines))
	for _, l := range Lines {
		m[l] = true
	}
	return m
}()

// Lines returns the fixed set of policy lines.
func (s *PostgresStore) Lines() []string {
	return Lines
}

// ListPolicyholders returns every row of a line table with a non-empty
// policyholder name. A missing table surfaces as an error; callers treat
// that as "this line contributes nothing" and continue.
func (s *PostgresStore) ListPolicyholders(ctx context.Context, line string) ([]Policyholder, error) {
	if !knownLines[line] {
		return nil, eris.Errorf("poliza: unknown line %q", line)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT contratante, COALESCE(email, ''), COALESCE(numero_poliza, ''), COALESCE(ramo, '')
		FROM %s
		WHERE contratante IS NOT NULL AND contratante <> ''`, line))
	if err != nil {
		return nil, eris.Wrapf(err, "poliza: list policyholders for %s", line)
	}
	defer rows.Close()

	var holders []Policyholder
	for rows.Next() {
		var p Policyholder
		if err := rows.Scan(&p.Contratante, &p.Email, &p.NumeroPoliza, &p.Ramo); err != nil {
			return nil, eris.Wrapf(err, "poliza: scan policyholder from %s", line)
		}
		holders = append(holders, p)
	}
	return holders, rows.Err()
}
