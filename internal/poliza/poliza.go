// Package poliza exposes read-only access to the per-line policy tables.
package poliza

import "context"

// Lines is the fixed set of insurance product lines, one table per line.
var Lines = []string{
	"autos", "diversos", "gmm", "hogar", "mascotas", "negocio", "rc", "transporte", "vida",
}

// Policyholder is the projection of a policy row the reconciliation engine
// needs: everything else on a line table is opaque to it.
type Policyholder struct {
	Contratante  string `json:"contratante" db:"contratante"`
	Email        string `json:"email,omitempty" db:"email"`
	NumeroPoliza string `json:"numero_poliza,omitempty" db:"numero_poliza"`
	Ramo         string `json:"ramo,omitempty" db:"ramo"`
}

// PolicyStore defines read access to the policy-line tables. The policy
// management subsystem owns the tables; this store never writes.
type PolicyStore interface { //nolint:revive // stutters but widely used across codebase
	Lines() []string
	ListPolicyholders(ctx context.Context, line string) ([]Policyholder, error)
}
