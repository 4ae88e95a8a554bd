package directorio

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/grupo-alfil/crm-backend/internal/db"
)

// PostgresStore implements ContactStore using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const migration = `
CREATE TABLE IF NOT EXISTS directorio_contactos (
	id                      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	nombre_completo         TEXT NOT NULL,
	nombre_completo_oficial TEXT NOT NULL DEFAULT '',
	nickname                TEXT NOT NULL DEFAULT '',
	apellido                TEXT NOT NULL DEFAULT '',
	display_name            TEXT NOT NULL DEFAULT '',
	empresa                 TEXT NOT NULL DEFAULT '',
	telefono_oficina        TEXT NOT NULL DEFAULT '',
	telefono_casa           TEXT NOT NULL DEFAULT '',
	telefono_asistente      TEXT NOT NULL DEFAULT '',
	telefono_movil          TEXT NOT NULL DEFAULT '',
	telefonos_corregidos    TEXT NOT NULL DEFAULT '',
	email                   TEXT NOT NULL DEFAULT '',
	entidad                 TEXT NOT NULL DEFAULT '',
	genero                  TEXT NOT NULL DEFAULT '',
	status_social           TEXT NOT NULL DEFAULT '',
	ocupacion               TEXT NOT NULL DEFAULT '',
	pais                    TEXT NOT NULL DEFAULT 'MÉXICO',
	origen                  TEXT NOT NULL DEFAULT '',
	comentario              TEXT NOT NULL DEFAULT '',
	status                  TEXT NOT NULL DEFAULT 'prospecto',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_directorio_nombre ON directorio_contactos (nombre_completo);
CREATE INDEX IF NOT EXISTS idx_directorio_status ON directorio_contactos (status);
CREATE INDEX IF NOT EXISTS idx_directorio_email ON directorio_contactos (lower(email));
`

// Migrate creates the directory table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, migration); err != nil {
		return eris.Wrap(err, "directorio: migrate")
	}
	return nil
}

// Create inserts a new contact and sets its ID. Blank country and status
// fall back to their defaults, matching directory intake behavior.
func (s *PostgresStore) Create(ctx context.Context, c *Contact) error {
	if strings.TrimSpace(c.FullName) == "" {
		return ErrNameRequired
	}
	applyDefaults(c)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO directorio_contactos (
			nombre_completo, nombre_completo_oficial, nickname, apellido, display_name,
			empresa, telefono_oficina, telefono_casa, telefono_asistente, telefono_movil,
			telefonos_corregidos, email, entidad, genero, status_social,
			ocupacion, pais, origen, comentario, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20
		) RETURNING id, created_at, updated_at`,
		contactArgs(c)...,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "directorio: create contact")
	}
	return nil
}

// Update replaces all mutable fields of an existing contact.
func (s *PostgresStore) Update(ctx context.Context, c *Contact) error {
	if strings.TrimSpace(c.FullName) == "" {
		return ErrNameRequired
	}
	applyDefaults(c)
	args := append([]any{c.ID}, contactArgs(c)...)
	tag, err := s.pool.Exec(ctx, `
		UPDATE directorio_contactos SET
			nombre_completo=$2, nombre_completo_oficial=$3, nickname=$4, apellido=$5, display_name=$6,
			empresa=$7, telefono_oficina=$8, telefono_casa=$9, telefono_asistente=$10, telefono_movil=$11,
			telefonos_corregidos=$12, email=$13, entidad=$14, genero=$15, status_social=$16,
			ocupacion=$17, pais=$18, origen=$19, comentario=$20, status=$21,
			updated_at=now()
		WHERE id=$1`,
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "directorio: update contact %d", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a contact by ID. Returns nil when the contact does not exist.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Contact, error) {
	c := &Contact{}
	err := s.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM directorio_contactos WHERE id=$1`, id).
		Scan(contactDests(c)...)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "directorio: get contact %d", id)
	}
	return c, nil
}

// Delete removes a contact. The reconciliation engine never calls this.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM directorio_contactos WHERE id=$1`, id)
	if err != nil {
		return eris.Wrapf(err, "directorio: delete contact %d", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of contacts matching the filter, ordered by name.
func (s *PostgresStore) List(ctx context.Context, f Filter) (*Page, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	conds := []string{"1=1"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Origin != "" {
		add("origen = $%d", f.Origin)
	}
	if f.Gender != "" {
		add("genero = $%d", f.Gender)
	}
	if f.Letter != "" {
		add("UPPER(LEFT(nombre_completo, 1)) = $%d", strings.ToUpper(f.Letter))
	}
	if f.Search != "" {
		term := "%" + f.Search + "%"
		args = append(args, term)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(nombre_completo ILIKE $%d OR email ILIKE $%d OR telefono_movil ILIKE $%d)", n, n, n))
	}
	where := strings.Join(conds, " AND ")

	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM directorio_contactos WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, eris.Wrap(err, "directorio: count contacts")
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM directorio_contactos WHERE %s ORDER BY nombre_completo ASC LIMIT $%d OFFSET $%d`,
		contactColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, eris.Wrap(err, "directorio: list contacts")
	}
	defer rows.Close()

	contacts, err := scanContacts(rows)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Page{
		Contacts:   contacts,
		Total:      total,
		PageNum:    page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Search finds contacts by free text across names, company, email, phones
// and occupation. Queries shorter than two characters return nothing.
func (s *PostgresStore) Search(ctx context.Context, q string) ([]Contact, error) {
	q = strings.TrimSpace(q)
	if len(q) < 2 {
		return nil, nil
	}
	term := "%" + q + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM directorio_contactos
		WHERE nombre_completo ILIKE $1
		   OR empresa ILIKE $1
		   OR email ILIKE $1
		   OR telefono_movil ILIKE $1
		   OR telefono_oficina ILIKE $1
		   OR ocupacion ILIKE $1
		ORDER BY nombre_completo ASC
		LIMIT 100`, term)
	if err != nil {
		return nil, eris.Wrap(err, "directorio: search contacts")
	}
	defer rows.Close()
	return scanContacts(rows)
}

// Stats returns directory totals plus status and origin histograms.
func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		ByStatus: map[string]int64{},
		ByOrigin: map[string]int64{},
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM directorio_contactos`).Scan(&st.Total); err != nil {
		return nil, eris.Wrap(err, "directorio: stats total")
	}

	byStatus, err := s.StatusHistogram(ctx)
	if err != nil {
		return nil, err
	}
	st.ByStatus = byStatus

	rows, err := s.pool.Query(ctx, `
		SELECT origen, COUNT(*)
		FROM directorio_contactos
		WHERE origen <> ''
		GROUP BY origen
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "directorio: stats by origin")
	}
	defer rows.Close()
	for rows.Next() {
		var origin string
		var n int64
		if err := rows.Scan(&origin, &n); err != nil {
			return nil, eris.Wrap(err, "directorio: scan origin stat")
		}
		st.ByOrigin[origin] = n
	}
	return st, rows.Err()
}

// StatusHistogram returns contact counts grouped by status. Contacts with a
// blank status land in the "sin_estado" bucket.
func (s *PostgresStore) StatusHistogram(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM directorio_contactos
		GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "directorio: status histogram")
	}
	defer rows.Close()

	hist := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "directorio: scan status stat")
		}
		if status == "" {
			status = "sin_estado"
		}
		hist[status] = n
	}
	return hist, rows.Err()
}

// ListMatchable returns the projection the reconciliation engine scans:
// every contact with a non-empty full name.
func (s *PostgresStore) ListMatchable(ctx context.Context) ([]Contact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, nombre_completo, email, status
		FROM directorio_contactos
		WHERE nombre_completo <> ''
		ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "directorio: list matchable contacts")
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.Status); err != nil {
			return nil, eris.Wrap(err, "directorio: scan matchable contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// BulkSetStatus flips every listed contact currently in status `from` to
// status `to` in a single statement and reports how many rows changed.
func (s *PostgresStore) BulkSetStatus(ctx context.Context, ids []int64, from, to string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE directorio_contactos
		SET status = $1, updated_at = now()
		WHERE id = ANY($2) AND status = $3`, to, ids, from)
	if err != nil {
		return 0, eris.Wrap(err, "directorio: bulk set status")
	}
	return tag.RowsAffected(), nil
}

// contactColumns is the standard column list for contact queries.
const contactColumns = `id, nombre_completo, nombre_completo_oficial, nickname, apellido, display_name,
	empresa, telefono_oficina, telefono_casa, telefono_asistente, telefono_movil,
	telefonos_corregidos, email, entidad, genero, status_social,
	ocupacion, pais, origen, comentario, status, created_at, updated_at`

// contactDests returns scan destinations for a Contact.
func contactDests(c *Contact) []any {
	return []any{
		&c.ID, &c.FullName, &c.OfficialName, &c.Nickname, &c.LastName, &c.DisplayName,
		&c.Company, &c.OfficePhone, &c.HomePhone, &c.AssistantPhone, &c.MobilePhone,
		&c.CorrectedPhones, &c.Email, &c.Entity, &c.Gender, &c.SocialStatus,
		&c.Occupation, &c.Country, &c.Origin, &c.Comment, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	}
}

// contactArgs returns insert/update arguments in column order (without id).
func contactArgs(c *Contact) []any {
	return []any{
		c.FullName, c.OfficialName, c.Nickname, c.LastName, c.DisplayName,
		c.Company, c.OfficePhone, c.HomePhone, c.AssistantPhone, c.MobilePhone,
		c.CorrectedPhones, c.Email, c.Entity, c.Gender, c.SocialStatus,
		c.Occupation, c.Country, c.Origin, c.Comment, c.Status,
	}
}

func scanContacts(rows pgx.Rows) ([]Contact, error) {
	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(contactDests(&c)...); err != nil {
			return nil, eris.Wrap(err, "directorio: scan contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func applyDefaults(c *Contact) {
	c.Gender = strings.TrimSpace(c.Gender)
	if strings.TrimSpace(c.Status) == "" {
		c.Status = DefaultStatus
	}
	if strings.TrimSpace(c.Country) == "" {
		c.Country = DefaultCountry
	}
}
