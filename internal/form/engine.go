// Package form evaluates exercise technique on a normalized detector-layout
// pose. Each exercise maps to a Rule; the Engine owns the registry and
// resolves free-form exercise names to it.
package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/banshee-data/formsense/internal/pose"
)

var (
	// ErrUnknownExercise is returned for names with no registered rule.
	ErrUnknownExercise = errors.New("form: unknown exercise")
	// ErrNoReference is returned by reference-comparison rules when no
	// corrected pose is available yet.
	ErrNoReference = errors.New("form: no corrected reference pose")
)

// Scoring scales. Reference-comparison rules deduct from 100; the
// self-consistency rules report a 0–10 ratio.
const (
	ScaleReference   = 100
	ScaleConsistency = 10
)

// Result is the outcome of one rule evaluation. Checks counts the checks
// that could be evaluated; zero means too little of the body was visible.
type Result struct {
	Score    float64  `json:"score"`
	Feedback []string `json:"feedback"`
	Checks   int      `json:"checks"`
	Passed   int      `json:"passed"`
	Scale    float64  `json:"scale"`
}

// Perfect reports whether the score is the top of its scale.
func (r Result) Perfect() bool {
	return r.Checks > 0 && r.Score == r.Scale
}

// Rule scores one pose. corrected is a reference-layout pose from the
// correction service, or nil when none is available.
type Rule interface {
	Evaluate(p, corrected pose.Pose) (Result, error)
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(p, corrected pose.Pose) (Result, error)

// Evaluate implements Rule.
func (f RuleFunc) Evaluate(p, corrected pose.Pose) (Result, error) { return f(p, corrected) }

// NormalizeName lowercases an exercise name, trims it and collapses inner
// whitespace so "  Barbell   Squat" and "barbell squat" match.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Engine is a registry of rules keyed by normalized exercise name.
// It is safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewEngine returns an Engine with the built-in exercise rules registered.
func NewEngine() *Engine {
	e := &Engine{rules: make(map[string]Rule)}
	registerBuiltins(e)
	return e
}

// Register adds or replaces the rule for an exercise.
func (e *Engine) Register(exercise string, r Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[NormalizeName(exercise)] = r
}

// Has reports whether a rule exists for the exercise.
func (e *Engine) Has(exercise string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.rules[NormalizeName(exercise)]
	return ok
}

// Exercises returns the registered exercise names in sorted order.
func (e *Engine) Exercises() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.rules))
	for name := range e.rules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Evaluate scores p against the named exercise's rule.
func (e *Engine) Evaluate(exercise string, p, corrected pose.Pose) (Result, error) {
	key := NormalizeName(exercise)
	e.mu.RLock()
	r, ok := e.rules[key]
	e.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownExercise, key)
	}
	return r.Evaluate(p, corrected)
}
