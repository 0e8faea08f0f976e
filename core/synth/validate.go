package synth

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/tribal/schema"
)

var configValidate = validator.New()

// Issue is one problem found in a generator configuration.
type Issue struct {
	Field  string
	Reason string
}

// ValidationError lists every problem found in a configuration.
// It is returned before any sampling happens.
type ValidationError struct {
	Issues []Issue
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + ": " + issue.Reason
	}
	return "invalid generator config: " + strings.Join(parts, "; ")
}

// Validate checks a configuration and returns a *ValidationError when it is unusable.
func Validate(cfg Config) error {
	var issues []Issue
	add := func(field, format string, args ...any) {
		issues = append(issues, Issue{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate generator config: %w", err)
		}
		for _, fe := range verrs {
			add(fieldName(fe.Namespace()), "%s (received %v)", describeRule(fe), fe.Value())
		}
	}

	index := make(map[string]int, len(cfg.Languages))
	sum := 0.0
	for i, lang := range cfg.Languages {
		field := fmt.Sprintf("languages[%d]", i)
		key := strings.ToLower(lang.Name)
		if _, dup := index[key]; dup && key != "" {
			add(field, "duplicate language %q", lang.Name)
		}
		index[key] = i
		if math.IsNaN(lang.Popularity) || math.IsInf(lang.Popularity, 0) {
			add(field, "popularity of %q is not finite", lang.Name)
			continue
		}
		sum += lang.Popularity
	}
	if len(cfg.Languages) > 0 && !(sum > 0) {
		add("languages", "popularity weights must sum to a positive value (received %g)", sum)
	}

	for _, from := range sortedNames(cfg.Affinity) {
		if _, ok := index[strings.ToLower(from)]; !ok {
			add("affinity."+from, "unknown language %q", from)
		}
		row := cfg.Affinity[from]
		for _, to := range sortedNames(row) {
			field := "affinity." + from + "." + to
			v := row[to]
			if _, ok := index[strings.ToLower(to)]; !ok {
				add(field, "unknown language %q", to)
			}
			if strings.EqualFold(from, to) {
				add(field, "a language cannot have an affinity with itself")
			}
			if math.IsNaN(v) || v < -1 || v > 1 {
				add(field, "affinity must be in [-1,1] (received %g)", v)
			}
		}
	}

	if cfg.Label.Enabled {
		l := cfg.Label
		if !(l.Coverage > 0 && l.Coverage <= 1) {
			add("label.coverage", "must be in (0,1] (received %g)", l.Coverage)
		}
		if !(l.Scale > 0) {
			add("label.scale", "must be greater than 0 (received %g)", l.Scale)
		}
		if !(l.Noise >= 0) {
			add("label.noise", "must be at least 0 (received %g)", l.Noise)
		}
		for key, w := range l.Weights {
			if _, ok := schema.ValidMetricKeys[key]; !ok {
				add("label.weights."+string(key), "unknown metric")
			} else if math.IsNaN(w) || math.IsInf(w, 0) {
				add("label.weights."+string(key), "weight is not finite")
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return &ValidationError{Issues: issues}
}

// fieldName strips the root struct name from a validator namespace.
func fieldName(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "gtefield":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}

func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
