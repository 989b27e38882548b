package feed

import "strings"

const keySeparator = "#"

// Key is the canonical map key for a (source, sort mode) pair.
type Key string

// KeyOf is the only way a Key is built.
func KeyOf(s Source, m SortMode) Key {
	return Key(s.Path() + keySeparator + string(m))
}

// Path returns the source path part of the key.
func (k Key) Path() string {
	i := strings.LastIndex(string(k), keySeparator)
	if i < 0 {
		return string(k)
	}
	return string(k)[:i]
}

// SortMode returns the sort mode part of the key.
func (k Key) SortMode() SortMode {
	i := strings.LastIndex(string(k), keySeparator)
	if i < 0 {
		return ""
	}
	return SortMode(string(k)[i+1:])
}

// BelongsTo reports whether the key was built for source s.
func (k Key) BelongsTo(s Source) bool {
	return k.Path() == s.Path()
}
