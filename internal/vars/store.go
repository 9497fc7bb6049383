// internal/vars/store.go
package vars

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// MaskToken replaces sensitive values in any output produced for display or logs.
const MaskToken = "***"

// placeholderPattern matches both supported placeholder grammars:
//   - $name          (dollar form, word characters only)
//   - {{ name }}     (brace form, inner whitespace tolerated)
//
// The brace form is matched first so that "{{ x }}" is never misread as a
// literal brace followed by a dollar placeholder.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Variable is a single named value held by the store.
type Variable struct {
	Name      string
	Value     string
	Sensitive bool
}

// Store holds named string values used for instruction templating and secret
// masking. Values marked sensitive are substituted normally by Resolve but are
// replaced by MaskToken in RenderForLog output. Masking is purely a
// presentation concern; the stored value is never altered.
//
// The store is safe for concurrent use: custom action callbacks may write
// variables while the runner reads them.
type Store struct {
	mu   sync.RWMutex
	vars map[string]Variable
	// redactions holds sensitive literals with no variable name, e.g. a
	// password handed directly to a login call. They participate in
	// RenderForLog only.
	redactions []string
}

// New creates a store seeded from an initial name->value mapping. Names listed
// in sensitiveKeys are flagged sensitive, whether or not they appear in the
// initial mapping; a later Set for such a name keeps the flag unless the
// caller clears it explicitly.
func New(initial map[string]string, sensitiveKeys []string) *Store {
	s := &Store{vars: make(map[string]Variable, len(initial))}
	sensitive := make(map[string]bool, len(sensitiveKeys))
	for _, k := range sensitiveKeys {
		sensitive[k] = true
	}
	for name, value := range initial {
		s.vars[name] = Variable{Name: name, Value: value, Sensitive: sensitive[name]}
	}
	// Remember sensitivity for keys that have no value yet (e.g. a variable
	// that an extract step will fill in later).
	for name := range sensitive {
		if _, ok := s.vars[name]; !ok {
			s.vars[name] = Variable{Name: name, Sensitive: true}
		}
	}
	return s
}

// Set inserts or overwrites the named variable.
func (s *Store) Set(name, value string, sensitive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = Variable{Name: name, Value: value, Sensitive: sensitive}
}

// SetPreserving inserts or overwrites the named variable, keeping an existing
// sensitivity flag. Used by extract steps, which know the value but not the
// caller's masking intent.
func (s *Store) SetPreserving(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.vars[name]
	v.Name = name
	v.Value = value
	s.vars[name] = v
}

// Redact registers a bare sensitive value for log masking. Use it for
// secrets that flow through the agent without ever becoming a named variable.
func (s *Store) Redact(value string) {
	if value == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redactions = append(s.redactions, value)
}

// Get returns the stored value and whether the variable exists. The value is
// never masked; masking applies only to display and log contexts.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v.Value, ok
}

// Sensitive reports whether the named variable is flagged sensitive.
func (s *Store) Sensitive(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars[name].Sensitive
}

// Names returns the sorted list of variable names currently in the store.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve produces a new string with every $name and {{ name }} placeholder
// replaced by the corresponding variable's real value. Placeholders that name
// an unknown variable are left verbatim so the text remains inspectable; the
// caller can decide whether an unresolved placeholder is an error.
func (s *Store) Resolve(text string) string {
	return s.substitute(text, false)
}

// RenderForLog performs the same substitution as Resolve, except variables
// flagged sensitive are replaced by MaskToken. It also redacts literal
// occurrences of sensitive values that are already present in the text, so a
// previously resolved string can be logged safely.
func (s *Store) RenderForLog(text string) string {
	out := s.substitute(text, true)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vars {
		if v.Sensitive && v.Value != "" {
			out = strings.ReplaceAll(out, v.Value, MaskToken)
		}
	}
	for _, value := range s.redactions {
		out = strings.ReplaceAll(out, value, MaskToken)
	}
	return out
}

func (s *Store) substitute(text string, mask bool) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderName(match)
		v, ok := s.vars[name]
		if !ok {
			return match
		}
		if mask && v.Sensitive {
			return MaskToken
		}
		return v.Value
	})
}

// placeholderName strips the placeholder syntax from a match, handling both
// the dollar and brace forms.
func placeholderName(match string) string {
	if strings.HasPrefix(match, "$") {
		return match[1:]
	}
	name := strings.TrimPrefix(match, "{{")
	name = strings.TrimSuffix(name, "}}")
	return strings.TrimSpace(name)
}
