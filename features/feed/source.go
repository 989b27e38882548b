package feed

import (
	"errors"
	"strings"
)

var (
	ErrEmptySource = errors.New("source path is empty")
)

// Source identifies a feed by its path. Composite sources are curated lists of the
// form /user/<name>/m/<listname>.
type Source struct {
	path        string
	isComposite bool
}

// NewSource builds a Source from viewer input. Surrounding whitespace is trimmed and
// a composite path entered without its leading slash gains one.
func NewSource(input string) (Source, error) {
	path := strings.TrimSpace(input)
	if path == "" || path == "/" {
		return Source{}, ErrEmptySource
	}

	composite := isCompositePath(path)
	if composite && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return Source{path: path, isComposite: composite}, nil
}

// MustSource is NewSource for literals known to be valid.
func MustSource(input string) Source {
	s, err := NewSource(input)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Source) Path() string      { return s.path }
func (s Source) IsComposite() bool { return s.isComposite }
func (s Source) IsZero() bool      { return s.path == "" }
func (s Source) String() string    { return s.path }

// Equal reports path equality.
func (s Source) Equal(o Source) bool {
	return s.path == o.path
}

// Type is the favorite type label for the source.
func (s Source) Type() string {
	if s.isComposite {
		return "multi"
	}
	return "subreddit"
}

// DisplayName renders composite sources as "<name>'s <listname>".
func (s Source) DisplayName() string {
	if !s.isComposite {
		return s.path
	}
	parts := segments(s.path)
	return parts[1] + "'s " + parts[3]
}

func isCompositePath(path string) bool {
	parts := segments(path)
	return len(parts) >= 4 && parts[0] == "user" && parts[2] == "m"
}

func segments(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
