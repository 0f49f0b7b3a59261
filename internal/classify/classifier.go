// Package classify assigns the discrete fraud-risk level from statement
// file metadata. Rules live in an ordered, data-driven table per format
// family; the combination-by-combination precedence tracks evolving
// business requirements, so new combinations are added to the table without
// touching the reconciliation engine.
package classify

import (
	"strings"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

// Conditions is the predicate side of one rule. Nil pointer fields are not
// checked; everything set must hold for the rule to match.
type Conditions struct {
	// ProducerMissing matches on whether the producer field is blank.
	ProducerMissing *bool

	// AuthorMissing matches on whether the author field is blank.
	AuthorMissing *bool

	// ProducerContains is a case-insensitive substring match on the
	// producer field.
	ProducerContains string

	// TimestampsEqual matches on whether creation and modification
	// timestamps agree.
	TimestampsEqual *bool

	// MinHeaderManipulations / MaxHeaderManipulations bound the count of
	// detected header-row manipulations (inclusive).
	MinHeaderManipulations *int
	MaxHeaderManipulations *int

	// MinDiffChangeRatio is the inclusive lower bound on the statement's
	// balance-diff change ratio.
	MinDiffChangeRatio *float64
}

func (c Conditions) matches(meta domain.StatementMetadata, v *domain.VerificationResult) bool {
	producerBlank := strings.TrimSpace(meta.Producer) == ""
	authorBlank := strings.TrimSpace(meta.Author) == ""

	if c.ProducerMissing != nil && *c.ProducerMissing != producerBlank {
		return false
	}
	if c.AuthorMissing != nil && *c.AuthorMissing != authorBlank {
		return false
	}
	if c.ProducerContains != "" &&
		!strings.Contains(strings.ToLower(meta.Producer), strings.ToLower(c.ProducerContains)) {
		return false
	}
	if c.TimestampsEqual != nil && *c.TimestampsEqual != meta.CreatedAt.Equal(meta.ModifiedAt) {
		return false
	}
	if c.MinHeaderManipulations != nil && meta.HeaderManipulations < *c.MinHeaderManipulations {
		return false
	}
	if c.MaxHeaderManipulations != nil && meta.HeaderManipulations > *c.MaxHeaderManipulations {
		return false
	}
	if c.MinDiffChangeRatio != nil {
		if v == nil || v.BalanceDiffChangeRatio < *c.MinDiffChangeRatio {
			return false
		}
	}
	return true
}

// Rule is one entry of the ordered combination table. Rules are evaluated
// top to bottom within the statement's format family; the first match wins.
type Rule struct {
	Name   string
	Family string
	When   Conditions
	Level  domain.ClassificationLevel
	Reason string
}

// Classifier evaluates an ordered rule table and the balance-match
// override.
type Classifier struct {
	rules []Rule
}

// New builds a classifier over the given ordered rules.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Default returns a classifier loaded with the current business rule table.
func Default() *Classifier {
	return New(DefaultRules())
}

// Classify applies the rule table for the statement's format family, falls
// back to UNCLASSIFIED when nothing matches, then applies the balance-match
// override. The override runs last and supersedes every rule: a statement
// whose balance reconciles is NO_ISSUES no matter what the metadata says.
func (c *Classifier) Classify(meta domain.StatementMetadata, v *domain.VerificationResult) *domain.ClassificationResult {
	result := &domain.ClassificationResult{
		Level:  domain.LevelUnclassified,
		Reason: "no metadata combination matched",
	}
	for _, rule := range c.rules {
		if rule.Family != "" && !strings.EqualFold(rule.Family, meta.FormatFamily) {
			continue
		}
		if rule.When.matches(meta, v) {
			result = &domain.ClassificationResult{
				Level:  rule.Level,
				Reason: rule.Reason,
				Rule:   rule.Name,
			}
			break
		}
	}

	if v != nil && v.BalanceMatch == domain.BalanceMatchSuccess {
		return &domain.ClassificationResult{
			Level:  domain.LevelNoIssues,
			Reason: "Balance verification successful",
		}
	}
	return result
}
