package feed

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownSortMode = errors.New("unknown sort mode")

type SortMode string

const (
	SortHot           SortMode = "hot"
	SortNew           SortMode = "new"
	SortRising        SortMode = "rising"
	SortControversial SortMode = "controversial"
	SortTop           SortMode = "top"
)

// SortModes lists every sort mode in prefetch walk order.
var SortModes = []SortMode{SortHot, SortNew, SortRising, SortControversial, SortTop}

func (m SortMode) String() string { return string(m) }

func (m SortMode) IsValid() bool {
	return slices.Contains(SortModes, m)
}

// ParseSortMode accepts only the fixed sort mode names.
func ParseSortMode(s string) (SortMode, error) {
	m := SortMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w %q", ErrUnknownSortMode, s)
	}
	return m, nil
}

// ParseSortModes keeps the given order; an empty input yields SortModes.
func ParseSortModes(names []string) ([]SortMode, error) {
	if len(names) == 0 {
		return slices.Clone(SortModes), nil
	}
	modes := make([]SortMode, 0, len(names))
	for _, n := range names {
		m, err := ParseSortMode(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(modes, m) {
			modes = append(modes, m)
		}
	}
	return modes, nil
}
