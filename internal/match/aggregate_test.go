package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_GroupsByContactIDAscending(t *testing.T) {
	flat := []Match{
		{ContactID: 9, ContactName: "Zoe", Line: "vida", PolicyNumber: "V-1", Score: 0.95, Type: TypeNameSimilarity},
		{ContactID: 2, ContactName: "Ana", Line: "autos", PolicyNumber: "A-1", Score: 1.0, Type: TypeEmailExact},
		{ContactID: 9, ContactName: "Zoe", Line: "hogar", PolicyNumber: "H-1", Score: 1.0, Type: TypeNameSimilarity},
	}

	report := Aggregate(flat, []string{"autos", "hogar", "vida"})

	require.Len(t, report.Relationships, 2)
	assert.Equal(t, int64(2), report.Relationships[0].Contact.ID)
	assert.Equal(t, int64(9), report.Relationships[1].Contact.ID)

	zoe := report.Relationships[1]
	require.Len(t, zoe.Policies, 2)
	assert.Equal(t, "hogar", zoe.Policies[0].Line, "higher score first within a contact")
	assert.Equal(t, "vida", zoe.Policies[1].Line)
}

func TestAggregate_SummaryCounts(t *testing.T) {
	flat := []Match{
		{ContactID: 1, Line: "autos", Score: 1.0, Type: TypeEmailExact},
		{ContactID: 1, Line: "autos", Score: 0.9, Type: TypeNameSimilarity},
		{ContactID: 3, Line: "vida", Score: 0.85, Type: TypeNameSimilarity},
	}

	report := Aggregate(flat, []string{"autos", "gmm", "vida"})

	assert.Equal(t, 3, report.Summary.TotalRelationships)
	assert.Equal(t, 2, report.Summary.ContactsWithPolicies)
	assert.Equal(t, 1, report.Summary.ByMatchType.EmailExact)
	assert.Equal(t, 2, report.Summary.ByMatchType.NameSimilarity)
	assert.Equal(t, 2, report.Summary.ByLine["autos"])
	assert.Equal(t, 1, report.Summary.ByLine["vida"])

	// Every known line appears in the histogram even with zero matches.
	count, ok := report.Summary.ByLine["gmm"]
	assert.True(t, ok)
	assert.Zero(t, count)
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil, []string{"autos"})
	assert.Empty(t, report.Relationships)
	assert.Zero(t, report.Summary.TotalRelationships)
	assert.Zero(t, report.Summary.ContactsWithPolicies)
	assert.Equal(t, map[string]int{"autos": 0}, report.Summary.ByLine)
}

func TestAggregate_StableTieOrder(t *testing.T) {
	flat := []Match{
		{ContactID: 1, Line: "autos", PolicyNumber: "A-1", Score: 0.9, Type: TypeNameSimilarity},
		{ContactID: 1, Line: "vida", PolicyNumber: "V-1", Score: 0.9, Type: TypeNameSimilarity},
	}
	report := Aggregate(flat, []string{"autos", "vida"})
	require.Len(t, report.Relationships, 1)
	policies := report.Relationships[0].Policies
	require.Len(t, policies, 2)
	assert.Equal(t, "A-1", policies[0].PolicyNumber)
	assert.Equal(t, "V-1", policies[1].PolicyNumber)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	flat := []Match{
		{ContactID: 1, Line: "autos", Score: 0.5},
		{ContactID: 2, Line: "vida", Score: 0.9},
	}
	Aggregate(flat, []string{"autos", "vida"})
	assert.Equal(t, int64(1), flat[0].ContactID, "input order must be preserved")
}
