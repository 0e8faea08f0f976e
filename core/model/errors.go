package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/tribal/schema"
)

// Sentinel errors returned by Fit.
var (
	ErrNoRepositories = errors.New("dataset has no repositories")
	ErrNoLabels       = errors.New("label proxy requested but no repository carries a risk_proxy")
)

// ParameterIssue describes one parameter that failed the convergence checks.
type ParameterIssue struct {
	Parameter string
	Level     schema.Level
	Project   string // Set for project-level parameters
	Rhat      float64
	ESS       float64
}

// ConvergenceError is returned when the chains do not pass the R-hat and ESS
// thresholds within the iteration budget. It is a failed fit, not a wide interval.
type ConvergenceError struct {
	Iterations int
	MaxRhat    float64
	MinESS     float64
	Issues     []ParameterIssue
}

// Error implements the error interface.
func (e *ConvergenceError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		where := string(issue.Level)
		if issue.Project != "" {
			where += " " + issue.Project
		}
		parts = append(parts, fmt.Sprintf("%s (%s): rhat=%.3f ess=%.1f", issue.Parameter, where, issue.Rhat, issue.ESS))
	}
	return fmt.Sprintf("sampler did not converge after %d iterations per chain (max rhat %.3f, min ess %.0f): %s",
		e.Iterations, e.MaxRhat, e.MinESS, strings.Join(parts, "; "))
}

// NumericalError reports a conditional block that could not be sampled even
// after jitter was added to its precision matrix.
type NumericalError struct {
	Block string
	Chain int
	Err   error
}

// Error implements the error interface.
func (e *NumericalError) Error() string {
	return fmt.Sprintf("chain %d: cannot sample block %s: %v", e.Chain, e.Block, e.Err)
}

// Unwrap returns the underlying error.
func (e *NumericalError) Unwrap() error {
	return e.Err
}
