package engine

import "github.com/use-agent/jobscout/models"

// accumulator tallies one run. Counters only grow.
type accumulator struct {
	m models.Metrics
}

func (a *accumulator) processed() { a.m.Processed++ }
func (a *accumulator) failed()    { a.m.Failed++ }
func (a *accumulator) skipped()   { a.m.Skipped++ }

// missed records page slots that were never reached.
func (a *accumulator) missed(n int) {
	if n > 0 {
		a.m.Missed += n
	}
}

// snapshot returns a copy safe to hand to listeners.
func (a *accumulator) snapshot() *models.Metrics {
	m := a.m
	return &m
}
