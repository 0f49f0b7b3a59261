package classify

import "github.com/ebran-flow/fraud-detection-sub001/internal/domain"

// Family names for the two supported statement layouts. Format 1 covers
// the provider's PDF exports, format 2 the spreadsheet exports.
const (
	FamilyFormat1 = "format_1"
	FamilyFormat2 = "format_2"
)

// DefaultRules is the current ordered combination table. Order matters:
// within a family the first matching rule wins, so the severe combinations
// sit on top.
func DefaultRules() []Rule {
	return []Rule{
		// ── format 1 (PDF) ──
		{
			Name:   "f1-metadata-stripped",
			Family: FamilyFormat1,
			When:   Conditions{ProducerMissing: ptr(true), AuthorMissing: ptr(true)},
			Level:  domain.LevelFatal,
			Reason: "Producer and author metadata stripped from document",
		},
		{
			Name:   "f1-online-editor",
			Family: FamilyFormat1,
			When:   Conditions{ProducerContains: "ilovepdf"},
			Level:  domain.LevelFatal,
			Reason: "Document regenerated by an online PDF editor",
		},
		{
			Name:   "f1-modified-and-manipulated",
			Family: FamilyFormat1,
			When:   Conditions{TimestampsEqual: ptr(false), MinHeaderManipulations: ptr(1)},
			Level:  domain.LevelFatal,
			Reason: "Modified after creation with manipulated header rows",
		},
		{
			Name:   "f1-header-manipulation",
			Family: FamilyFormat1,
			When:   Conditions{MinHeaderManipulations: ptr(1)},
			Level:  domain.LevelCritical,
			Reason: "Header row manipulation detected",
		},
		{
			Name:   "f1-modified-with-unstable-diffs",
			Family: FamilyFormat1,
			When:   Conditions{TimestampsEqual: ptr(false), MinDiffChangeRatio: ptr(0.1)},
			Level:  domain.LevelCritical,
			Reason: "Modified after creation with unstable balance diffs",
		},
		{
			Name:   "f1-modified-after-creation",
			Family: FamilyFormat1,
			When:   Conditions{TimestampsEqual: ptr(false)},
			Level:  domain.LevelWarning,
			Reason: "Modification timestamp differs from creation",
		},
		{
			Name:   "f1-diffs-majority",
			Family: FamilyFormat1,
			When:   Conditions{MinDiffChangeRatio: ptr(0.5)},
			Level:  domain.LevelCritical,
			Reason: "Balance diffs change in more than half of the rows",
		},
		{
			Name:   "f1-diffs-elevated",
			Family: FamilyFormat1,
			When:   Conditions{MinDiffChangeRatio: ptr(0.2)},
			Level:  domain.LevelWarning,
			Reason: "Elevated balance diff change ratio",
		},
		{
			Name:   "f1-provider-export",
			Family: FamilyFormat1,
			When: Conditions{
				ProducerContains:       "itext",
				TimestampsEqual:        ptr(true),
				MaxHeaderManipulations: ptr(0),
			},
			Level:  domain.LevelNoIssues,
			Reason: "Metadata consistent with provider export",
		},

		// ── format 2 (spreadsheet) ──
		{
			Name:   "f2-header-manipulation",
			Family: FamilyFormat2,
			When:   Conditions{MinHeaderManipulations: ptr(1)},
			Level:  domain.LevelFatal,
			Reason: "Header row manipulation detected",
		},
		{
			Name:   "f2-modified-after-creation",
			Family: FamilyFormat2,
			When:   Conditions{TimestampsEqual: ptr(false)},
			Level:  domain.LevelCritical,
			Reason: "Workbook modified after creation",
		},
		{
			Name:   "f2-author-missing",
			Family: FamilyFormat2,
			When:   Conditions{AuthorMissing: ptr(true)},
			Level:  domain.LevelWarning,
			Reason: "Workbook author missing",
		},
		{
			Name:   "f2-diffs-elevated",
			Family: FamilyFormat2,
			When:   Conditions{MinDiffChangeRatio: ptr(0.3)},
			Level:  domain.LevelCritical,
			Reason: "Elevated balance diff change ratio",
		},
		{
			Name:   "f2-provider-export",
			Family: FamilyFormat2,
			When: Conditions{
				ProducerContains:       "microsoft excel",
				TimestampsEqual:        ptr(true),
				MaxHeaderManipulations: ptr(0),
			},
			Level:  domain.LevelNoIssues,
			Reason: "Metadata consistent with provider export",
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
