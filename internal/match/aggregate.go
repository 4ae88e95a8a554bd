package match

import "sort"

// Aggregate turns a flat match list into the grouped relationship report.
//
// The flat list is stable-sorted by score descending first, so each
// contact's policy list comes out score-ordered with ties kept in discovery
// order. Grouped entries are emitted in ascending contact-id order. No
// dedup happens here: the only suppression in the engine is the email-pass
// triple check inside the finder, and near-identical matches across lines
// are kept as-is.
func Aggregate(flat []Match, lines []string) *RelationshipReport {
	sorted := make([]Match, len(flat))
	copy(sorted, flat)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	groups := map[int64]*GroupedRelationship{}
	var ids []int64
	for _, m := range sorted {
		g, ok := groups[m.ContactID]
		if !ok {
			g = &GroupedRelationship{
				Contact: ContactSummary{
					ID:     m.ContactID,
					Name:   m.ContactName,
					Email:  m.ContactEmail,
					Status: m.ContactStatus,
				},
			}
			groups[m.ContactID] = g
			ids = append(ids, m.ContactID)
		}
		g.Policies = append(g.Policies, PolicyMatch{
			Line:         m.Line,
			HolderName:   m.HolderName,
			HolderEmail:  m.HolderEmail,
			PolicyNumber: m.PolicyNumber,
			Ramo:         m.Ramo,
			Score:        m.Score,
			Type:         m.Type,
		})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	relationships := make([]GroupedRelationship, 0, len(ids))
	for _, id := range ids {
		relationships = append(relationships, *groups[id])
	}

	summary := Summary{
		TotalRelationships:   len(sorted),
		ContactsWithPolicies: len(ids),
		ByLine:               make(map[string]int, len(lines)),
	}
	for _, line := range lines {
		summary.ByLine[line] = 0
	}
	for _, m := range sorted {
		summary.ByLine[m.Line]++
		switch m.Type {
		case TypeEmailExact:
			summary.ByMatchType.EmailExact++
		case TypeNameSimilarity:
			summary.ByMatchType.NameSimilarity++
		}
	}

	return &RelationshipReport{
		Summary:       summary,
		Relationships: relationships,
	}
}
