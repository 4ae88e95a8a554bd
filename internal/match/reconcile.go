package match

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grupo-alfil/crm-backend/internal/directorio"
)

// Reconciler promotes contacts that already hold policies from prospect to
// client, based on a fresh relationship scan.
type Reconciler struct {
	finder *Finder
	store  StatusStore
}

// NewReconciler creates a Reconciler.
func NewReconciler(finder *Finder, store StatusStore) *Reconciler {
	return &Reconciler{finder: finder, store: store}
}

// Reconcile runs a relationship scan and bulk-promotes every matched
// contact whose status is exactly "prospecto" to "cliente". Contacts
// already clients or inactive are untouched, so a second run over unchanged
// data affects zero rows. The promotion is a single statement: it either
// lands entirely or not at all.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	log := zap.L().With(zap.String("component", "reconciler"))

	report, err := r.finder.FindRelationships(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: relationship scan")
	}

	ids := make([]int64, 0, len(report.Relationships))
	for _, rel := range report.Relationships {
		ids = append(ids, rel.Contact.ID)
	}

	if len(ids) == 0 {
		log.Info("no contacts to promote")
		return &ReconcileResult{UpdatedContactIDs: []int64{}}, nil
	}

	updated, err := r.store.BulkSetStatus(ctx, ids, directorio.StatusProspecto, directorio.StatusCliente)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: bulk status update")
	}

	stats, err := r.store.StatusHistogram(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: status histogram")
	}

	log.Info("status reconciliation complete",
		zap.Int("matched_contacts", len(ids)),
		zap.Int64("updated", updated),
	)

	return &ReconcileResult{
		UpdatedCount:      updated,
		NewStats:          stats,
		UpdatedContactIDs: ids,
	}, nil
}
