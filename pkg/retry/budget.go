package retry

// Budget counts consecutive failures against a fixed maximum.
// A success resets the count; it is not a lifetime total.
type Budget struct {
	max      int
	failures int
}

// NewBudget creates a budget that is exhausted after max consecutive failures
func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Fail records a failure and reports whether the budget is now exhausted
func (b *Budget) Fail() bool {
	b.failures++
	return b.Exhausted()
}

// Reset clears the consecutive failure count after a success
func (b *Budget) Reset() {
	b.failures = 0
}

// Exhausted reports whether the consecutive failure count reached the maximum
func (b *Budget) Exhausted() bool {
	return b.failures >= b.max
}

// Failures returns the current consecutive failure count
func (b *Budget) Failures() int {
	return b.failures
}

// Max returns the configured maximum
func (b *Budget) Max() int {
	return b.max
}
