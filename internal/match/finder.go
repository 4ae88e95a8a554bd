package match

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/grupo-alfil/crm-backend/internal/directorio"
	"github.com/grupo-alfil/crm-backend/internal/poliza"
)

// Config holds the engine thresholds. The bulk relationship scan and the
// per-contact lookup use different thresholds; both values come from the
// directory's original tuning and are deliberately not unified.
type Config struct {
	RelationshipThreshold float64
	LookupThreshold       float64
	Concurrency           int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		RelationshipThreshold: 0.8,
		LookupThreshold:       0.7,
		Concurrency:           4,
	}
}

// Finder scans the contact directory against the policy-line tables.
type Finder struct {
	contacts ContactSource
	policies PolicySource
	cfg      Config
}

// NewFinder creates a Finder over the given sources.
func NewFinder(contacts ContactSource, policies PolicySource, cfg Config) *Finder {
	if cfg.RelationshipThreshold <= 0 {
		cfg.RelationshipThreshold = 0.8
	}
	if cfg.LookupThreshold <= 0 {
		cfg.LookupThreshold = 0.7
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Finder{contacts: contacts, policies: policies, cfg: cfg}
}

// FindRelationships scans every contact against every policy line and
// returns the grouped, score-ordered relationship report.
//
// Lines are scanned concurrently; each line is independent and its matches
// land in a fixed slot, so the flat match order (line order, then contact
// order, then row order) is deterministic regardless of scheduling. A line
// whose lookup fails is logged and contributes nothing; the other lines
// proceed. A cancelled context stops the remaining lines and the report
// comes back flagged Partial with everything collected so far.
func (f *Finder) FindRelationships(ctx context.Context) (*RelationshipReport, error) {
	log := zap.L().With(zap.String("component", "match_finder"))

	contacts, err := f.contacts.ListMatchable(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "match: list contacts")
	}

	lines := f.policies.Lines()
	perLine := make([][]Match, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for i, line := range lines {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			rows, err := f.policies.ListPolicyholders(gctx, line)
			if err != nil {
				log.Warn("policy line skipped",
					zap.String("line", line),
					zap.Error(err),
				)
				return nil
			}
			perLine[i] = scanLine(line, contacts, rows, f.cfg.RelationshipThreshold)
			return nil
		})
	}
	_ = g.Wait() // workers log and absorb per-line failures

	var flat []Match
	for _, ms := range perLine {
		flat = append(flat, ms...)
	}

	report := Aggregate(flat, lines)
	report.Partial = ctx.Err() != nil

	log.Info("relationship scan complete",
		zap.Int("matches", report.Summary.TotalRelationships),
		zap.Int("contacts", report.Summary.ContactsWithPolicies),
		zap.Bool("partial", report.Partial),
	)
	return report, nil
}

// scanLine runs the two match passes for one policy line. The similarity
// pass goes first; the email pass then adds score-1.0 matches only where
// the (contact, line, policy number) triple is not already covered.
func scanLine(line string, contacts []directorio.Contact, rows []poliza.Policyholder, threshold float64) []Match {
	var matches []Match

	for _, c := range contacts {
		if c.FullName == "" {
			continue
		}
		for _, r := range rows {
			if r.Contratante == "" {
				continue
			}
			score := Similarity(c.FullName, r.Contratante)
			if score > threshold {
				matches = append(matches, newMatch(c, line, r, score, TypeNameSimilarity))
			}
		}
	}

	for _, c := range contacts {
		if c.Email == "" {
			continue
		}
		for _, r := range rows {
			if r.Email == "" || !strings.EqualFold(c.Email, r.Email) {
				continue
			}
			if hasMatch(matches, c.ID, line, r.NumeroPoliza) {
				continue
			}
			matches = append(matches, newMatch(c, line, r, 1.0, TypeEmailExact))
		}
	}

	return matches
}

// FindPoliciesForContact looks up every policy plausibly belonging to one
// contact, across all lines, using the looser lookup threshold. A row also
// matches on exact email equality even when its name score is below the
// threshold; such rows keep their computed name score.
func (f *Finder) FindPoliciesForContact(ctx context.Context, contactID int64) (*ContactPolicies, error) {
	log := zap.L().With(
		zap.String("component", "match_finder"),
		zap.Int64("contact_id", contactID),
	)

	contact, err := f.contacts.Get(ctx, contactID)
	if err != nil {
		return nil, eris.Wrapf(err, "match: get contact %d", contactID)
	}
	if contact == nil {
		return nil, directorio.ErrNotFound
	}

	var policies []Match
	for _, line := range f.policies.Lines() {
		rows, err := f.policies.ListPolicyholders(ctx, line)
		if err != nil {
			log.Warn("policy line skipped", zap.String("line", line), zap.Error(err))
			continue
		}
		for _, r := range rows {
			if r.Contratante == "" {
				continue
			}
			score := Similarity(contact.FullName, r.Contratante)
			emailHit := contact.Email != "" && r.Email == contact.Email
			if score <= f.cfg.LookupThreshold && !emailHit {
				continue
			}
			typ := TypeName
			if emailHit {
				typ = TypeEmail
			}
			policies = append(policies, newMatch(*contact, line, r, score, typ))
		}
	}

	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].Score > policies[j].Score
	})

	return &ContactPolicies{
		Contact:       *contact,
		Policies:      policies,
		TotalPolicies: len(policies),
	}, nil
}

func newMatch(c directorio.Contact, line string, r poliza.Policyholder, score float64, typ string) Match {
	ramo := r.Ramo
	if ramo == "" {
		ramo = line
	}
	return Match{
		ContactID:     c.ID,
		ContactName:   c.FullName,
		ContactEmail:  c.Email,
		ContactStatus: c.Status,
		Line:          line,
		HolderName:    r.Contratante,
		HolderEmail:   r.Email,
		PolicyNumber:  r.NumeroPoliza,
		Ramo:          ramo,
		Score:         score,
		Type:          typ,
	}
}

func hasMatch(matches []Match, contactID int64, line, policyNumber string) bool {
	for _, m := range matches {
		if m.ContactID == contactID && m.Line == line && m.PolicyNumber == policyNumber {
			return true
		}
	}
	return false
}
