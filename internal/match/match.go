package match

import (
	"context"

	"github.com/grupo-alfil/crm-backend/internal/directorio"
	"github.com/grupo-alfil/crm-backend/internal/poliza"
)

// Match types emitted by the bulk relationship scan.
const (
	TypeNameSimilarity = "name_similarity"
	TypeEmailExact     = "email_exact"
)

// Match types emitted by the per-contact policy lookup. The labels differ
// from the bulk scan on purpose: a lookup "email" hit keeps the computed
// name score, so it is not the same animal as a score-1.0 "email_exact".
const (
	TypeName  = "name"
	TypeEmail = "email"
)

// Match links one directory contact to one policy-line row.
type Match struct {
	ContactID     int64   `json:"directorio_id"`
	ContactName   string  `json:"directorio_nombre"`
	ContactEmail  string  `json:"directorio_email,omitempty"`
	ContactStatus string  `json:"directorio_status,omitempty"`
	Line          string  `json:"tabla_poliza"`
	HolderName    string  `json:"cliente_nombre"`
	HolderEmail   string  `json:"cliente_email,omitempty"`
	PolicyNumber  string  `json:"numero_poliza,omitempty"`
	Ramo          string  `json:"ramo"`
	Score         float64 `json:"similarity_score"`
	Type          string  `json:"match_type"`
}

// ContactSummary identifies the contact side of a grouped relationship.
type ContactSummary struct {
	ID     int64  `json:"id" yaml:"id"`
	Name   string `json:"nombre" yaml:"nombre"`
	Email  string `json:"email,omitempty" yaml:"email,omitempty"`
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}

// PolicyMatch is one matched policy inside a grouped relationship.
type PolicyMatch struct {
	Line         string  `json:"tabla" yaml:"tabla"`
	HolderName   string  `json:"cliente_nombre" yaml:"cliente_nombre"`
	HolderEmail  string  `json:"cliente_email,omitempty" yaml:"cliente_email,omitempty"`
	PolicyNumber string  `json:"numero_poliza,omitempty" yaml:"numero_poliza,omitempty"`
	Ramo         string  `json:"ramo" yaml:"ramo"`
	Score        float64 `json:"similarity_score" yaml:"similarity_score"`
	Type         string  `json:"match_type" yaml:"match_type"`
}

// GroupedRelationship collects all matched policies for one contact.
type GroupedRelationship struct {
	Contact  ContactSummary `json:"contacto" yaml:"contacto"`
	Policies []PolicyMatch  `json:"polizas" yaml:"polizas"`
}

// MatchTypeCounts breaks the summary down by match type.
type MatchTypeCounts struct {
	EmailExact     int `json:"email_exact" yaml:"email_exact"`
	NameSimilarity int `json:"name_similarity" yaml:"name_similarity"`
}

// Summary holds aggregate statistics for one relationship scan.
type Summary struct {
	TotalRelationships   int             `json:"total_relationships" yaml:"total_relationships"`
	ContactsWithPolicies int             `json:"contacts_with_policies" yaml:"contacts_with_policies"`
	ByMatchType          MatchTypeCounts `json:"by_match_type" yaml:"by_match_type"`
	ByLine               map[string]int  `json:"by_table" yaml:"by_table"`
}

// RelationshipReport is the result of a full relationship scan. Partial is
// set when the scan was cancelled before covering every line; whatever was
// collected up to that point is still aggregated and valid.
type RelationshipReport struct {
	Summary       Summary               `json:"summary" yaml:"summary"`
	Relationships []GroupedRelationship `json:"relationships" yaml:"relationships"`
	Partial       bool                  `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// ContactPolicies is the result of a per-contact policy lookup.
type ContactPolicies struct {
	Contact       directorio.Contact `json:"contact"`
	Policies      []Match            `json:"policies"`
	TotalPolicies int                `json:"total_policies"`
}

// ReconcileResult reports a prospect-to-client promotion run.
type ReconcileResult struct {
	UpdatedCount      int64            `json:"updated_count"`
	NewStats          map[string]int64 `json:"new_stats,omitempty"`
	UpdatedContactIDs []int64          `json:"updated_contact_ids"`
}

// ContactSource is the read surface the engine needs from the directory.
type ContactSource interface {
	ListMatchable(ctx context.Context) ([]directorio.Contact, error)
	Get(ctx context.Context, id int64) (*directorio.Contact, error)
}

// PolicySource is the read surface the engine needs from the policy tables.
type PolicySource interface {
	Lines() []string
	ListPolicyholders(ctx context.Context, line string) ([]poliza.Policyholder, error)
}

// StatusStore is the single write surface of the engine.
type StatusStore interface {
	BulkSetStatus(ctx context.Context, ids []int64, from, to string) (int64, error)
	StatusHistogram(ctx context.Context) (map[string]int64, error)
}
