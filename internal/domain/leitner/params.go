package leitner

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMaxBox is the number of boxes in the reference policy.
const DefaultMaxBox = 5

// Params errors
var (
	ErrNoIntervals           = errors.New("interval table cannot be empty")
	ErrNonPositiveInterval   = errors.New("intervals must be positive")
	ErrNonIncreasingInterval = errors.New("intervals must be strictly increasing")
)

// Params holds the interval table of the Leitner policy. Intervals[i] is the
// wait before a card in box i+1 is due again; the number of intervals is the
// number of boxes.
type Params struct {
	Intervals []time.Duration
}

// ParamsConfig allows overriding the default interval table, expressed in
// hours as it appears in configuration.
type ParamsConfig struct {
	IntervalsHours []int
}

// NewDefaultParams returns the reference table: 1, 2, 4, 7 and 14 days.
func NewDefaultParams() *Params {
	return &Params{
		Intervals: []time.Duration{
			24 * time.Hour,
			2 * 24 * time.Hour,
			4 * 24 * time.Hour,
			7 * 24 * time.Hour,
			14 * 24 * time.Hour,
		},
	}
}

// NewParams builds Params from configuration. An empty table selects the
// defaults; any other table must be positive and strictly increasing.
func NewParams(config ParamsConfig) (*Params, error) {
	if len(config.IntervalsHours) == 0 {
		return NewDefaultParams(), nil
	}

	params := &Params{Intervals: make([]time.Duration, len(config.IntervalsHours))}
	for i, h := range config.IntervalsHours {
		params.Intervals[i] = time.Duration(h) * time.Hour
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks the interval table.
func (p *Params) Validate() error {
	if len(p.Intervals) == 0 {
		return ErrNoIntervals
	}
	for i, d := range p.Intervals {
		if d <= 0 {
			return fmt.Errorf("%w: box %d", ErrNonPositiveInterval, i+1)
		}
		if i > 0 && d <= p.Intervals[i-1] {
			return fmt.Errorf("%w: box %d", ErrNonIncreasingInterval, i+1)
		}
	}
	return nil
}

// MaxBox is the highest box level.
func (p *Params) MaxBox() int {
	return len(p.Intervals)
}
