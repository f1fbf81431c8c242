package core

// AggregateScore reduces diagnostic outcomes to the percentage that passed.
// Integer division truncates, and a run with no applicable diagnostics scores 100.
func AggregateScore(succeeded, failed int) int {
	total := succeeded + failed
	if total <= 0 {
		return 100
	}
	return succeeded * 100 / total
}
