package microsoft

import "strings"

// ScopeSet is an ordered list of OAuth2 scopes. Duplicates are allowed;
// Remove only ever drops the first matching entry.
type ScopeSet struct {
	scopes []string
}

// NewScopeSet creates a scope set from the given scopes, skipping blanks.
func NewScopeSet(scopes ...string) ScopeSet {
	var s ScopeSet
	for _, scope := range scopes {
		s.Add(scope)
	}
	return s
}

// ParseScopes splits a space-delimited scope string.
func ParseScopes(s string) ScopeSet {
	return NewScopeSet(strings.Fields(s)...)
}

// Add appends a scope.
func (s *ScopeSet) Add(scope string) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return
	}
	s.scopes = append(s.scopes, scope)
}

// Remove deletes the first occurrence of scope. It reports whether anything was removed.
func (s *ScopeSet) Remove(scope string) bool {
	for i, v := range s.scopes {
		if v == scope {
			s.scopes = append(s.scopes[:i:i], s.scopes[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns how many times scope occurs.
func (s ScopeSet) Count(scope string) int {
	n := 0
	for _, v := range s.scopes {
		if v == scope {
			n++
		}
	}
	return n
}

// Contains reports whether scope occurs at least once.
func (s ScopeSet) Contains(scope string) bool {
	return s.Count(scope) > 0
}

// Slice returns a copy of the scopes in order.
func (s ScopeSet) Slice() []string {
	return append([]string(nil), s.scopes...)
}

// Len returns the number of entries, duplicates included.
func (s ScopeSet) Len() int {
	return len(s.scopes)
}

// String returns the space-delimited form sent to the identity provider.
func (s ScopeSet) String() string {
	return strings.Join(s.scopes, " ")
}

func (s ScopeSet) clone() ScopeSet {
	return ScopeSet{scopes: s.Slice()}
}
