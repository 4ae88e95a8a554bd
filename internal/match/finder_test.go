package match

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grupo-alfil/crm-backend/internal/directorio"
	"github.com/grupo-alfil/crm-backend/internal/poliza"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeContacts struct {
	contacts []directorio.Contact
	err      error
}

func (f *fakeContacts) ListMatchable(context.Context) ([]directorio.Contact, error) {
	return f.contacts, f.err
}

func (f *fakeContacts) Get(_ context.Context, id int64) (*directorio.Contact, error) {
	for _, c := range f.contacts {
		if c.ID == id {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

type fakePolicies struct {
	lines   []string
	rows    map[string][]poliza.Policyholder
	failing map[string]bool
}

func (f *fakePolicies) Lines() []string {
	if f.lines != nil {
		return f.lines
	}
	return poliza.Lines
}

func (f *fakePolicies) ListPolicyholders(_ context.Context, line string) ([]poliza.Policyholder, error) {
	if f.failing[line] {
		return nil, eris.Errorf("relation %q does not exist", line)
	}
	return f.rows[line], nil
}

func newTestFinder(contacts []directorio.Contact, policies *fakePolicies) *Finder {
	return NewFinder(&fakeContacts{contacts: contacts}, policies, DefaultConfig())
}

func TestFindRelationships_NameAndEmailDedup(t *testing.T) {
	contacts := []directorio.Contact{
		{ID: 1, FullName: "María López", Email: "m@x.com", Status: directorio.StatusProspecto},
	}
	policies := &fakePolicies{rows: map[string][]poliza.Policyholder{
		"autos": {{Contratante: "Maria Lopez", Email: "m@x.com", NumeroPoliza: "A-100"}},
	}}

	report, err := newTestFinder(contacts, policies).FindRelationships(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Partial)

	// One name match at 1.0; the email pass is suppressed because the
	// (contact, line, policy number) triple is already covered.
	require.Len(t, report.Relationships, 1)
	rel := report.Relationships[0]
	assert.Equal(t, int64(1), rel.Contact.ID)
	require.Len(t, rel.Policies, 1)
	assert.Equal(t, TypeNameSimilarity, rel.Policies[0].Type)
	assert.Equal(t, 1.0, rel.Policies[0].Score)
	assert.Equal(t, "autos", rel.Policies[0].Ramo, "blank ramo falls back to the line name")

	assert.Equal(t, 1, report.Summary.TotalRelationships)
	assert.Equal(t, 1, report.Summary.ContactsWithPolicies)
	assert.Equal(t, 1, report.Summary.ByMatchType.NameSimilarity)
	assert.Equal(t, 0, report.Summary.ByMatchType.EmailExact)
	assert.Equal(t, 1, report.Summary.ByLine["autos"])
	assert.Equal(t, 0, report.Summary.ByLine["vida"])
}

func TestFindRelationships_EmailOnlyMatch(t *testing.T) {
	contacts := []directorio.Contact{
		{ID: 7, FullName: "Pedro Gómez", Email: "PEDRO@x.com", Status: directorio.StatusProspecto},
	}
	policies := &fakePolicies{rows: map[string][]poliza.Policyholder{
		"vida": {{Contratante: "Inversiones Tortuga SA", Email: "pedro@x.com", NumeroPoliza: "V-9"}},
	}}

	report, err := newTestFinder(contacts, policies).FindRelationships(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Relationships, 1)
	require.Len(t, report.Relationships[0].Policies, 1)
	got := report.Relationships[0].Policies[0]
	assert.Equal(t, TypeEmailExact, got.Type)
	assert.Equal(t, 1.0, got.Score)
	assert.Equal(t, 1, report.Summary.ByMatchType.EmailExact)
}

func TestFindRelationships_ThresholdIsStrict(t *testing.T) {
	// {juan, carlos, perez} vs {juan, perez}: 2*2/5 = 0.8 exactly,
	// which must NOT clear the > 0.8 gate.
	contacts := []directorio.Contact{
		{ID: 2, FullName: "Juan Carlos Perez", Status: directorio.StatusProspecto},
	}
	policies := &fakePolicies{rows: map[string][]poliza.Policyholder{
		"autos": {{Contratante: "Juan Perez", NumeroPoliza: "A-1"}},
	}}

	require.Equal(t, 0.8, Similarity("Juan Carlos Perez", "Juan Perez"))

	report, err := newTestFinder(contacts, policies).FindRelationships(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Relationships)
	assert.Equal(t, 0, report.Summary.TotalRelationships)
}

func TestFindRelationships_MissingLineIsSkipped(t *testing.T) {
	contacts := []directorio.Contact{
		{ID: 1, FullName: "María López", Status: directorio.StatusProspecto},
	}
	rows := map[string][]poliza.Policyholder{}
	for _, line := range poliza.Lines {
		rows[line] = []poliza.Policyholder{{Contratante: "Maria Lopez", NumeroPoliza: "P-" + line}}
	}
	policies := &fakePolicies{rows: rows, failing: map[string]bool{"mascotas": true}}

	report, err := newTestFinder(contacts, policies).FindRelationships(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Partial)
	require.Len(t, report.Relationships, 1)
	assert.Len(t, report.Relationships[0].Policies, len(poliza.Lines)-1)
	assert.Equal(t, 0, report.Summary.ByLine["mascotas"])
	assert.Equal(t, 1, report.Summary.ByLine["autos"])
}

func TestFindRelationships_ContactStoreFailureIsFatal(t *testing.T) {
	finder := NewFinder(
		&fakeContacts{err: eris.New("connection refused")},
		&fakePolicies{},
		DefaultConfig(),
	)
	_, err := finder.FindRelationships(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list contacts")
}

func TestFindRelationships_CancelledContextReturnsPartial(t *testing.T) {
	contacts := []directorio.Contact{
		{ID: 1, FullName: "María López", Status: directorio.StatusProspecto},
	}
	policies := &fakePolicies{rows: map[string][]poliza.Policyholder{
		"autos": {{Contratante: "Maria Lopez", NumeroPoliza: "A-100"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestFinder(contacts, policies).FindRelationships(ctx)
	require.NoError(t, err)
	assert.True(t, report.Partial)
}

func TestFindRelationships_Deterministic(t *testing.T) {
	contacts := []directorio.Contact{
		{ID: 1, FullName: "María López", Email: "m@x.com", Status: directorio.StatusProspecto},
		{ID: 2, FullName: "Juan Pérez", Status: directorio.StatusCliente},
		{ID: 3, FullName: "Ana Torres", Status: directorio.StatusProspecto},
	}
	policies := &fakePolicies{rows: map[string][]poliza.Policyholder{
		"autos": {
			{Contratante: "Maria Lopez", NumeroPoliza: "A-1"},
			{Contratante: "Juan Perez Garcia", NumeroPoliza: "A-2"},
		},
		"vida": {
			{Contratante: "Ana Torres", Email: "ana@x.com", NumeroPoliza: "V-1"},
			{Contratante: "Maria Lopez", Email: "m@x.com", NumeroPoliza: "V-2"},
		},
	}}
	finder := newTestFinder(contacts, policies)

	first, err := finder.FindRelationships(context.Background())
	require.NoError(t, err)
	second, err := finder.FindRelationships(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFindPoliciesForContact_NotFound(t *testing.T) {
	finder := newTestFinder(nil, &fakePolicies{})
	_, err := finder.FindPoliciesForContact(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, directorio.ErrNotFound))
}

func TestFindPoliciesForContact_LooserThresholdAndEmailOr(t *testing.T) {
	contacts := []directorio.Contact{
		{ID: 5, FullName: "María López Hernández", Email: "m@x.com", Status: directorio.StatusProspecto},
	}
	policies := &fakePolicies{rows: map[string][]poliza.Policyholder{
		// The hogar row scores 0.9 via containment; the gmm row only
		// matches via the email OR and keeps its low name score.
		"hogar": {{Contratante: "Maria Lopez Hernandez de Todos", NumeroPoliza: "H-1"}},
		"gmm":   {{Contratante: "Aseguradora del Golfo", Email: "m@x.com", NumeroPoliza: "G-2"}},
	}}
	finder := newTestFinder(contacts, policies)

	got, err := finder.FindPoliciesForContact(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalPolicies)
	require.Len(t, got.Policies, 2)

	// Score-descending: the containment match first, then the email hit
	// that keeps its (low) name score.
	assert.Equal(t, TypeName, got.Policies[0].Type)
	assert.Equal(t, 0.9, got.Policies[0].Score)
	assert.Equal(t, TypeEmail, got.Policies[1].Type)
	assert.Less(t, got.Policies[1].Score, 0.7)
}

func TestFindPoliciesForContact_EmailIsCaseSensitive(t *testing.T) {
	// The per-contact lookup compares emails byte-for-byte, unlike the
	// bulk scan's case-insensitive pass.
	contacts := []directorio.Contact{
		{ID: 6, FullName: "Pedro Gómez", Email: "P@x.com", Status: directorio.StatusProspecto},
	}
	policies := &fakePolicies{rows: map[string][]poliza.Policyholder{
		"autos": {{Contratante: "Algo Totalmente Distinto", Email: "p@x.com", NumeroPoliza: "A-7"}},
	}}
	finder := newTestFinder(contacts, policies)

	got, err := finder.FindPoliciesForContact(context.Background(), 6)
	require.NoError(t, err)
	assert.Zero(t, got.TotalPolicies)
}
