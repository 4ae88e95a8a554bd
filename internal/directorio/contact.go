// Package directorio defines the contact directory data model and its store.
package directorio

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Contact statuses. A contact enters the directory as a prospect and is
// promoted to client by the reconciliation engine once a policy is linked.
const (
	StatusProspecto = "prospecto"
	StatusCliente   = "cliente"
	StatusInactivo  = "inactivo"
)

// Defaults applied on create/update when the incoming field is blank.
const (
	DefaultCountry = "MÉXICO"
	DefaultStatus  = StatusProspecto
)

// Sentinel errors surfaced to the API layer.
var (
	ErrNameRequired = eris.New("directorio: full name is required")
	ErrNotFound     = eris.New("directorio: contact not found")
)

// Contact is a directory entry (prospect or client).
type Contact struct {
	ID              int64     `json:"id" db:"id"`
	FullName        string    `json:"nombre_completo" db:"nombre_completo"`
	OfficialName    string    `json:"nombre_completo_oficial,omitempty" db:"nombre_completo_oficial"`
	Nickname        string    `json:"nickname,omitempty" db:"nickname"`
	LastName        string    `json:"apellido,omitempty" db:"apellido"`
	DisplayName     string    `json:"display_name,omitempty" db:"display_name"`
	Company         string    `json:"empresa,omitempty" db:"empresa"`
	OfficePhone     string    `json:"telefono_oficina,omitempty" db:"telefono_oficina"`
	HomePhone       string    `json:"telefono_casa,omitempty" db:"telefono_casa"`
	AssistantPhone  string    `json:"telefono_asistente,omitempty" db:"telefono_asistente"`
	MobilePhone     string    `json:"telefono_movil,omitempty" db:"telefono_movil"`
	CorrectedPhones string    `json:"telefonos_corregidos,omitempty" db:"telefonos_corregidos"`
	Email           string    `json:"email,omitempty" db:"email"`
	Entity          string    `json:"entidad,omitempty" db:"entidad"`
	Gender          string    `json:"genero,omitempty" db:"genero"`
	SocialStatus    string    `json:"status_social,omitempty" db:"status_social"`
	Occupation      string    `json:"ocupacion,omitempty" db:"ocupacion"`
	Country         string    `json:"pais,omitempty" db:"pais"`
	Origin          string    `json:"origen,omitempty" db:"origen"`
	Comment         string    `json:"comentario,omitempty" db:"comentario"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Filter narrows a directory listing.
type Filter struct {
	Status string
	Origin string
	Gender string
	Letter string // first letter of the full name
	Search string // free text across name, email, mobile phone
	Page   int
	Limit  int
}

// Page is one page of a directory listing.
type Page struct {
	Contacts   []Contact `json:"data"`
	Total      int64     `json:"total"`
	PageNum    int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// Stats summarizes the directory.
type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByOrigin map[string]int64 `json:"by_origen"`
}

// ContactStore defines persistence operations for the contact directory.
type ContactStore interface {
	Create(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
	Get(ctx context.Context, id int64) (*Contact, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter) (*Page, error)
	Search(ctx context.Context, q string) ([]Contact, error)
	Stats(ctx context.Context) (*Stats, error)

	// Reconciliation engine surface.
	ListMatchable(ctx context.Context) ([]Contact, error)
	BulkSetStatus(ctx context.Context, ids []int64, from, to string) (int64, error)
	StatusHistogram(ctx context.Context) (map[string]int64, error)
}
