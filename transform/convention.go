package transform

import (
	"regexp"
	"strings"

	"github.com/wippyai/druta/transform/internal/engine"
)

// Default convention values. Host primitives are named with the async
// prefix; runtime callback markers may appear as callee or argument.
const DefaultPrefix = "async"

// DefaultMarkers are the callback names the runtime injects.
var DefaultMarkers = []string{"$$success", "$$fail", "$$callBack"}

// Convention decides whether a name identifies an asynchronous host
// primitive. Calls whose callee, or a direct argument, matches are
// flagged async in the executable code.
type Convention = engine.Matcher

// PrefixConvention matches names starting with any of its prefixes.
type PrefixConvention struct {
	prefixes []string
}

// NewPrefixConvention creates a prefix convention. Empty prefixes are
// ignored.
func NewPrefixConvention(prefixes ...string) *PrefixConvention {
	c := &PrefixConvention{}
	for _, p := range prefixes {
		if p != "" {
			c.prefixes = append(c.prefixes, p)
		}
	}
	return c
}

// Match returns true if name has one of the prefixes.
func (c *PrefixConvention) Match(name string) bool {
	for _, p := range c.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// MarkerConvention matches exact marker names.
type MarkerConvention struct {
	markers map[string]bool
}

// NewMarkerConvention creates a convention from marker names.
func NewMarkerConvention(markers ...string) *MarkerConvention {
	c := &MarkerConvention{markers: make(map[string]bool, len(markers))}
	for _, m := range markers {
		c.markers[m] = true
	}
	return c
}

// Match returns true if name is one of the markers.
func (c *MarkerConvention) Match(name string) bool {
	return c.markers[name]
}

// RegexpConvention matches names against a regular expression. The
// pattern is unanchored unless it anchors itself.
type RegexpConvention struct {
	re *regexp.Regexp
}

// NewRegexpConvention compiles pattern into a convention.
func NewRegexpConvention(pattern string) (*RegexpConvention, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexpConvention{re: re}, nil
}

// Match returns true if the pattern matches name.
func (c *RegexpConvention) Match(name string) bool {
	return c.re.MatchString(name)
}

// CompositeConvention matches when any member matches.
type CompositeConvention []Convention

// Match returns true if any member convention matches.
func (c CompositeConvention) Match(name string) bool {
	for _, m := range c {
		if m != nil && m.Match(name) {
			return true
		}
	}
	return false
}

// DefaultConvention flags the async prefix and the runtime markers.
func DefaultConvention() Convention {
	return CompositeConvention{
		NewPrefixConvention(DefaultPrefix),
		NewMarkerConvention(DefaultMarkers...),
	}
}
