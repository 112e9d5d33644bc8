package domain

// QualityTier is one step of the quality ladder. Attempts is how many times
// the tier is tried before falling back to the next one.
type QualityTier struct {
	Name     string `mapstructure:"name" json:"name"`
	Format   string `mapstructure:"format" json:"format"`
	Attempts int    `mapstructure:"attempts" json:"attempts"`
}

// RetryState walks a quality ladder for a single acquisition. It only moves
// forward.
type RetryState struct {
	tiers   []QualityTier
	tier    int
	attempt int
	total   int
}

// NewRetryState creates a cursor positioned on the first attempt of the
// first tier. Tiers with fewer than one attempt are tried once.
func NewRetryState(tiers []QualityTier) *RetryState {
	return &RetryState{tiers: tiers}
}

// Exhausted reports whether every attempt of every tier has been used
func (r *RetryState) Exhausted() bool {
	return r.tier >= len(r.tiers)
}

// Current returns the tier of the current attempt. It must not be called
// once the state is exhausted.
func (r *RetryState) Current() QualityTier {
	return r.tiers[r.tier]
}

// TierIndex returns the zero-based index of the current tier
func (r *RetryState) TierIndex() int {
	return r.tier
}

// Attempts returns how many attempts have been consumed so far
func (r *RetryState) Attempts() int {
	return r.total
}

// Advance records a failed attempt and moves to the next one. It returns
// false when the ladder is exhausted.
func (r *RetryState) Advance() bool {
	if r.Exhausted() {
		return false
	}
	r.total++
	r.attempt++

	allowed := r.tiers[r.tier].Attempts
	if allowed < 1 {
		allowed = 1
	}
	if r.attempt >= allowed {
		r.tier++
		r.attempt = 0
	}
	return !r.Exhausted()
}
