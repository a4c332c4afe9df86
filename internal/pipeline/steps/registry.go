// Package steps provides step definitions and dependency tracking for the
// capture and discovery workflow.
package steps

import (
	"fmt"
	"sort"
)

// Step categories
const (
	CategoryCapture   = "capture"
	CategoryDiscovery = "discovery"
)

// Step names
const (
	ResolveTool     = "resolve_tool"
	ConfirmTool     = "confirm_tool"
	CaptureIntent   = "capture_intent"
	StoreCandidate  = "store_candidate"
	LookupCandidate = "lookup_candidate"
	DiscoverMethods = "discover_methods"
	SelectMethod    = "select_method"
	RecordDiscovery = "record_discovery"
)

// StepDefinition defines metadata for a workflow step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	ResolveTool: {
		Name:         ResolveTool,
		Category:     CategoryCapture,
		Dependencies: []string{},
	},
	ConfirmTool: {
		Name:         ConfirmTool,
		Category:     CategoryCapture,
		Dependencies: []string{ResolveTool},
	},
	CaptureIntent: {
		Name:         CaptureIntent,
		Category:     CategoryCapture,
		Dependencies: []string{ConfirmTool},
	},
	StoreCandidate: {
		Name:         StoreCandidate,
		Category:     CategoryCapture,
		Dependencies: []string{CaptureIntent},
	},
	LookupCandidate: {
		Name:         LookupCandidate,
		Category:     CategoryDiscovery,
		Dependencies: []string{},
		Optional:     []string{CaptureIntent},
	},
	DiscoverMethods: {
		Name:         DiscoverMethods,
		Category:     CategoryDiscovery,
		Dependencies: []string{LookupCandidate},
	},
	SelectMethod: {
		Name:         SelectMethod,
		Category:     CategoryDiscovery,
		Dependencies: []string{DiscoverMethods},
	},
	RecordDiscovery: {
		Name:         RecordDiscovery,
		Category:     CategoryDiscovery,
		Dependencies: []string{SelectMethod},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Tracker records which steps of one run have completed.
type Tracker struct {
	completed map[string]bool
	order     []string
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{completed: make(map[string]bool)}
}

// ValidateDependencies checks if all required dependencies for a step are completed
func (t *Tracker) ValidateDependencies(stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !t.completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// Complete marks stepName done after checking its dependencies.
func (t *Tracker) Complete(stepName string) error {
	if err := t.ValidateDependencies(stepName); err != nil {
		return err
	}
	if !t.completed[stepName] {
		t.completed[stepName] = true
		t.order = append(t.order, stepName)
	}
	return nil
}

// Completed returns the completed steps in completion order.
func (t *Tracker) Completed() []string {
	return append([]string(nil), t.order...)
}

// AvailableSteps returns steps that can be executed (dependencies met, not yet done)
func (t *Tracker) AvailableSteps() []string {
	var available []string
	for name := range StepRegistry {
		if t.completed[name] {
			continue
		}
		if t.ValidateDependencies(name) == nil {
			available = append(available, name)
		}
	}
	sort.Strings(available)
	return available
}

// BlockedSteps returns steps whose dependencies are not met
func (t *Tracker) BlockedSteps() []string {
	var blocked []string
	for name := range StepRegistry {
		if t.completed[name] {
			continue
		}
		if t.ValidateDependencies(name) != nil {
			blocked = append(blocked, name)
		}
	}
	sort.Strings(blocked)
	return blocked
}
