package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grupo-alfil/crm-backend/internal/match"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func sampleReport() *match.RelationshipReport {
	return &match.RelationshipReport{
		Summary: match.Summary{
			TotalRelationships:   1,
			ContactsWithPolicies: 1,
			ByMatchType:          match.MatchTypeCounts{NameSimilarity: 1},
			ByLine:               map[string]int{"autos": 1},
		},
		Relationships: []match.GroupedRelationship{{
			Contact: match.ContactSummary{ID: 1, Name: "María López"},
			Policies: []match.PolicyMatch{{
				Line: "autos", HolderName: "Maria Lopez", PolicyNumber: "A-1",
				Ramo: "autos", Score: 1.0, Type: match.TypeNameSimilarity,
			}},
		}},
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, sampleReport(), "json"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["total_relationships"])
}

func TestWriteReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, sampleReport(), "yaml"))

	out := buf.String()
	assert.Contains(t, out, "total_relationships: 1")
	assert.Contains(t, out, "María López")
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeReport(&buf, sampleReport(), "toml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown output format"))
	assert.Zero(t, buf.Len())
}
