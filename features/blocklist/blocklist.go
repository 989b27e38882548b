// Package blocklist holds the process-wide set of blocked origin domains.
package blocklist

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

var (
	ErrEmptyDomain  = errors.New("blocked domain is empty")
	ErrPublicSuffix = errors.New("blocked domain is a public suffix")
	ErrDecodeRecord = errors.New("failed to decode blocked origins record")
)

const (
	minBloomCapacity  = 1000
	bloomFalsePosRate = 0.01
)

var schemePrefix = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://`)

// Normalize reduces viewer input to a bare lowercase domain: no scheme, no leading
// "www.", no path.
func Normalize(input string) string {
	d := strings.ToLower(strings.TrimSpace(input))
	d = schemePrefix.ReplaceAllString(d, "")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}

// Set is an ordered set of blocked domains. Matching goes through a bloom filter
// first so the common case (nothing blocked for this origin) skips the exact lookup.
type Set struct {
	mu      sync.RWMutex
	domains []string
	index   map[string]struct{}
	filter  *bloom.BloomFilter
}

func New(domains ...string) *Set {
	s := &Set{index: make(map[string]struct{})}
	for _, d := range domains {
		d = Normalize(d)
		if d == "" {
			continue
		}
		if _, ok := s.index[d]; !ok {
			s.index[d] = struct{}{}
			s.domains = append(s.domains, d)
		}
	}
	s.rebuildFilter()
	return s
}

// rebuildFilter must be called with mu held for writing.
func (s *Set) rebuildFilter() {
	capacity := max(len(s.domains), minBloomCapacity)
	s.filter = bloom.NewWithEstimates(uint(capacity), bloomFalsePosRate)
	for _, d := range s.domains {
		s.filter.AddString(d)
	}
}

// Add normalises and blocks a domain. It reports whether the set changed.
func (s *Set) Add(input string) (string, bool, error) {
	d := Normalize(input)
	if d == "" {
		return "", false, ErrEmptyDomain
	}
	if suffix, icann := publicsuffix.PublicSuffix(d); suffix == d && icann {
		return d, false, fmt.Errorf("%w: %s", ErrPublicSuffix, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[d]; ok {
		return d, false, nil
	}
	s.index[d] = struct{}{}
	s.domains = append(s.domains, d)
	s.filter.AddString(d)

	log.Debug().Str("domain", d).Msg("Blocked origin added")
	return d, true, nil
}

// Remove unblocks a domain. It reports whether the set changed.
func (s *Set) Remove(input string) bool {
	d := Normalize(input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[d]; !ok {
		return false
	}
	delete(s.index, d)
	s.domains = slices.DeleteFunc(s.domains, func(v string) bool { return v == d })
	s.rebuildFilter()

	log.Debug().Str("domain", d).Msg("Blocked origin removed")
	return true
}

// Matches reports whether origin equals a blocked domain or is a subdomain of one.
func (s *Set) Matches(origin string) bool {
	d := strings.TrimPrefix(strings.ToLower(origin), "www.")
	if d == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.domains) == 0 {
		return false
	}

	for candidate := d; candidate != ""; {
		if s.filter.TestString(candidate) {
			if _, ok := s.index[candidate]; ok {
				return true
			}
		}
		i := strings.IndexByte(candidate, '.')
		if i < 0 {
			break
		}
		candidate = candidate[i+1:]
	}
	return false
}

// Domains returns the blocked domains in insertion order.
func (s *Set) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.domains)
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.domains)
}

// Encode serialises the set as an ordered list of domains.
func (s *Set) Encode() ([]byte, error) {
	return json.Marshal(s.Domains())
}

// Decode builds a set from a stored record.
func Decode(data []byte) (*Set, error) {
	if len(data) == 0 {
		return New(), nil
	}
	var domains []string
	if err := json.Unmarshal(data, &domains); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeRecord, err)
	}
	return New(domains...), nil
}
