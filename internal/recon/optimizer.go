package recon

import (
	"sort"
	"sync"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

// Optimizer resolves same-timestamp ordering ambiguity. Providers emit
// rows sharing one timestamp in arbitrary order, which manufactures balance
// diffs that have nothing to do with fraud. For each group of identical
// timestamps the optimizer searches reorderings that minimize the number of
// balance-diff transitions inside and immediately after the group.
type Optimizer struct {
	calc *Calculator

	// cap bounds the exhaustive search; a group of cap rows costs cap!
	// candidate orderings.
	cap int
}

// NewOptimizer returns an optimizer with the given group-size cap.
func NewOptimizer(calc *Calculator, cap int) *Optimizer {
	return &Optimizer{calc: calc, cap: cap}
}

// Run walks the statement in timestamp order, reordering each
// same-timestamp group in place and recomputing the balance fields for the
// chosen ordering. Groups are processed strictly in order because each
// group's entry state depends on the orderings chosen before it. The
// opening balance on the context must already be derived.
//
// Returns the total number of candidate orderings evaluated.
func (o *Optimizer) Run(sctx *domain.StatementContext, rows []*domain.ProcessedTransaction) int {
	st := balanceState{calc: sctx.OpeningBalance}
	evaluated := 0

	for s := 0; s < len(rows); {
		e := s + 1
		for e < len(rows) && rows[e].Timestamp.Equal(rows[s].Timestamp) {
			e++
		}
		if size := e - s; size > 1 {
			if size <= o.cap {
				evaluated += o.optimizeGroup(sctx, rows, s, e, st)
			} else {
				o.heuristicOrder(sctx, rows, s, e)
			}
		}
		for i := s; i < e; i++ {
			o.calc.advance(sctx, &st, rows[i])
		}
		s = e
	}
	return evaluated
}

// optimizeGroup exhaustively scores every permutation of rows[s:e] from the
// entry state and applies the best one. Candidates are scored concurrently;
// each evaluation forks the entry state and works on row copies, so scoring
// is side-effect free. The winner is the permutation with the fewest diff
// transitions, ties broken by staying closest to the original input order.
func (o *Optimizer) optimizeGroup(sctx *domain.StatementContext, rows []*domain.ProcessedTransaction, s, e int, entry balanceState) int {
	group := rows[s:e]
	var next *domain.ProcessedTransaction
	if e < len(rows) {
		next = rows[e]
	}

	perms := permutations(len(group))
	scores := make([]int, len(perms))

	var wg sync.WaitGroup
	for i, perm := range perms {
		wg.Add(1)
		go func(i int, perm []int) {
			defer wg.Done()
			scores[i] = o.scorePermutation(sctx, group, perm, next, entry)
		}(i, perm)
	}
	wg.Wait()

	best := 0
	for i := 1; i < len(perms); i++ {
		if scores[i] < scores[best] ||
			(scores[i] == scores[best] && displacement(perms[i]) < displacement(perms[best])) {
			best = i
		}
	}

	if best != 0 {
		reordered := make([]*domain.ProcessedTransaction, len(group))
		for pos, j := range perms[best] {
			reordered[pos] = group[j]
		}
		copy(group, reordered)
	}
	return len(perms)
}

// scorePermutation counts diff transitions for one candidate ordering,
// including the transition on the row immediately after the group.
func (o *Optimizer) scorePermutation(sctx *domain.StatementContext, group []*domain.ProcessedTransaction, perm []int, next *domain.ProcessedTransaction, st balanceState) int {
	changes := 0
	for _, j := range perm {
		row := *group[j]
		o.calc.advance(sctx, &st, &row)
		if row.BalanceDiffChanged {
			changes++
		}
	}
	if next != nil {
		row := *next
		o.calc.advance(sctx, &st, &row)
		if row.BalanceDiffChanged {
			changes++
		}
	}
	return changes
}

// heuristicOrder is the fallback for groups above the cap, where the
// factorial search is prohibitive and provides diminishing benefit. Debits
// walk the balance downward and credits upward, so sorting debits by
// descending reported balance and credits by ascending approximates the
// provider's true chronology.
func (o *Optimizer) heuristicOrder(sctx *domain.StatementContext, rows []*domain.ProcessedTransaction, s, e int) {
	var debits, credits []*domain.ProcessedTransaction
	for _, row := range rows[s:e] {
		if isDebit(sctx, row) {
			debits = append(debits, row)
		} else {
			credits = append(credits, row)
		}
	}
	sort.SliceStable(debits, func(i, j int) bool {
		return debits[i].ReportedBalance.GreaterThan(debits[j].ReportedBalance)
	})
	sort.SliceStable(credits, func(i, j int) bool {
		return credits[i].ReportedBalance.LessThan(credits[j].ReportedBalance)
	})
	copy(rows[s:e], append(debits, credits...))
}

func isDebit(sctx *domain.StatementContext, row *domain.ProcessedTransaction) bool {
	if !sctx.AmountsSigned {
		return row.Direction == domain.DirectionDebit
	}
	return row.Amount.IsNegative()
}

// permutations returns every permutation of [0..n) in lexicographic order,
// identity first.
func permutations(n int) [][]int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	var out [][]int
	var rec func(prefix, remaining []int)
	rec = func(prefix, remaining []int) {
		if len(remaining) == 0 {
			out = append(out, append([]int(nil), prefix...))
			return
		}
		for i, v := range remaining {
			rest := make([]int, 0, len(remaining)-1)
			rest = append(rest, remaining[:i]...)
			rest = append(rest, remaining[i+1:]...)
			rec(append(prefix, v), rest)
		}
	}
	rec(make([]int, 0, n), idx)
	return out
}

// displacement measures how far a permutation strays from the original
// input order.
func displacement(perm []int) int {
	total := 0
	for i, j := range perm {
		if d := i - j; d < 0 {
			total -= d
		} else {
			total += d
		}
	}
	return total
}
