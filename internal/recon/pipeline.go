package recon

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ebran-flow/fraud-detection-sub001/internal/classify"
	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
	"github.com/ebran-flow/fraud-detection-sub001/internal/logger"
)

// Step represents a single stage in the reconciliation pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across all pipeline steps for one statement.
// A fresh State is built per statement, so concurrent statements share
// nothing.
type State struct {
	Statement *domain.Statement
	Context   domain.StatementContext
	Rows      []*domain.ProcessedTransaction

	DuplicateCount      int
	PermutationsTried   int
	GapRelatedChanges   int
	MissingDaysDetected bool
	QualityIssues       int

	Verification   *domain.VerificationResult
	Classification *domain.ClassificationResult
}

// Step 1: NormalizeStep classifies special types, resolves the statement's
// sign convention and seeds the processed rows.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	stmt := state.Statement
	state.Context = domain.StatementContext{
		Format:                 stmt.Format,
		AmountsSigned:          AmountsSigned(stmt.Format, stmt.Transactions),
		DeclaredClosingBalance: stmt.DeclaredClosingBalance,
	}
	state.Rows = make([]*domain.ProcessedTransaction, len(stmt.Transactions))
	for i, tx := range stmt.Transactions {
		state.Rows[i] = &domain.ProcessedTransaction{
			Transaction: tx,
			SpecialType: DetectSpecialType(tx.TypeLabel),
			ImplicitFee: decimal.Zero,
		}
		state.QualityIssues += tx.QualityIssues
	}
	return nil
}

// Step 2: DetectDuplicatesStep flags exact repeats by composite identity
// key.
type DetectDuplicatesStep struct{}

func (s *DetectDuplicatesStep) Execute(ctx context.Context, state *State) error {
	state.DuplicateCount = markDuplicates(state.Rows)
	return nil
}

// Step 3: ImplicitFeeStep computes fees and cashbacks missing from the fee
// column. Applies to signed-amount statements only.
type ImplicitFeeStep struct{}

func (s *ImplicitFeeStep) Execute(ctx context.Context, state *State) error {
	if !state.Context.AmountsSigned {
		return nil
	}
	for _, row := range state.Rows {
		row.ImplicitFee = ImplicitFee(row.TypeLabel, row.Amount)
	}
	return nil
}

// Step 4: CalculateBalanceStep derives the opening balance and walks the
// sequence once.
type CalculateBalanceStep struct {
	Calc *Calculator
}

func (s *CalculateBalanceStep) Execute(ctx context.Context, state *State) error {
	return s.Calc.Run(&state.Context, state.Rows)
}

// Step 5: OptimizeOrderStep searches same-timestamp reorderings and
// recomputes balances for the chosen orderings.
type OptimizeOrderStep struct {
	Opt *Optimizer
}

func (s *OptimizeOrderStep) Execute(ctx context.Context, state *State) error {
	state.PermutationsTried = s.Opt.Run(&state.Context, state.Rows)
	return nil
}

// Step 6: DetectGapsStep attributes diff changes at date-gap boundaries to
// missing days.
type DetectGapsStep struct {
	Det *GapDetector
}

func (s *DetectGapsStep) Execute(ctx context.Context, state *State) error {
	state.GapRelatedChanges, state.MissingDaysDetected = s.Det.Annotate(state.Rows)
	return nil
}

// Step 7: VerdictStep aggregates everything into the verification result.
type VerdictStep struct {
	Epsilon decimal.Decimal
}

func (s *VerdictStep) Execute(ctx context.Context, state *State) error {
	state.Verification = buildVerdict(state, s.Epsilon)
	return nil
}

// Step 8: ClassifyStep applies the metadata rule table plus the balance
// match override.
type ClassifyStep struct {
	Classifier *classify.Classifier
}

func (s *ClassifyStep) Execute(ctx context.Context, state *State) error {
	state.Classification = s.Classifier.Classify(state.Statement.Metadata, state.Verification)
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Options are the engine tunables.
type Options struct {
	// Epsilon is the tolerance for balance-diff comparisons.
	Epsilon decimal.Decimal

	// PermutationCap bounds the same-timestamp exhaustive search.
	PermutationCap int

	// SignificantGapDays is the day gap above which missing statement days
	// are assumed.
	SignificantGapDays float64
}

// DefaultOptions returns the documented engine defaults.
func DefaultOptions() Options {
	return Options{
		Epsilon:            decimal.NewFromFloat(0.01),
		PermutationCap:     5,
		SignificantGapDays: 1.0,
	}
}

// Engine reconciles one statement at a time. It performs no I/O and keeps
// no cross-statement state, so a single Engine may be shared by concurrent
// workers.
type Engine struct {
	opts       Options
	classifier *classify.Classifier
	pipeline   *Pipeline
}

// NewEngine builds the standard 8-step reconciliation pipeline.
func NewEngine(opts Options, classifier *classify.Classifier) *Engine {
	calc := NewCalculator(opts.Epsilon)
	return &Engine{
		opts:       opts,
		classifier: classifier,
		pipeline: NewPipeline(
			&NormalizeStep{},
			&DetectDuplicatesStep{},
			&ImplicitFeeStep{},
			&CalculateBalanceStep{Calc: calc},
			&OptimizeOrderStep{Opt: NewOptimizer(calc, opts.PermutationCap)},
			&DetectGapsStep{Det: NewGapDetector(opts.SignificantGapDays)},
			&VerdictStep{Epsilon: opts.Epsilon},
			&ClassifyStep{Classifier: classifier},
		),
	}
}

// Reconcile runs the full pipeline for one statement. Structural failures
// (empty statement, missing first balance) produce a FAIL report instead of
// an error so batch callers keep processing other statements; any returned
// error is a programming error.
func (e *Engine) Reconcile(ctx context.Context, stmt *domain.Statement) (*domain.ReconciliationReport, error) {
	log := logger.WithStatement(logger.FromContext(ctx), stmt.ID)
	state := &State{Statement: stmt}

	err := e.pipeline.Execute(ctx, state)
	if err != nil {
		var serr *StructuralError
		if !errors.As(err, &serr) {
			return nil, err
		}
		state.Verification = structuralVerdict(state, serr)
		state.Classification = e.classifier.Classify(stmt.Metadata, state.Verification)
		log.Warn().Str("reason", serr.Reason).Msg("statement failed structurally")
	}

	log.Info().
		Str("status", string(state.Verification.Status)).
		Str("balance_match", string(state.Verification.BalanceMatch)).
		Int("rows", len(state.Rows)).
		Int("duplicates", state.Verification.DuplicateCount).
		Int("diff_changes", state.Verification.BalanceDiffChanges).
		Int("permutations_tried", state.PermutationsTried).
		Str("level", string(state.Classification.Level)).
		Msg("statement reconciled")

	return &domain.ReconciliationReport{
		StatementID:    stmt.ID,
		Transactions:   state.Rows,
		Verification:   state.Verification,
		Classification: state.Classification,
	}, nil
}
