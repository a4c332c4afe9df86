// Package pipeline provides the high-level orchestration for capturing a tool
// and discovering its output methods.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/confirm"
	"github.com/jonathan/purelink/internal/discovery"
	"github.com/jonathan/purelink/internal/identity"
	"github.com/jonathan/purelink/internal/observability"
	"github.com/jonathan/purelink/internal/pipeline/steps"
	"github.com/jonathan/purelink/internal/resolver"
	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

// SDKName is recorded in envelope metadata.
const SDKName = "google-genai"

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RecordID string `json:"record_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// Oracle is the model gateway shared by resolution and discovery.
type Oracle interface {
	resolver.Oracle
	discovery.Oracle
}

// Deps are the long-lived collaborators of a Runner. Log and Oracle are required.
type Deps struct {
	Oracle     Oracle
	Model      string
	Log        store.RecordLog
	Candidates store.CandidateStore
	Prompter   confirm.Prompter
	Printer    *observability.Printer
	Verifier   *discovery.Verifier
	Now        func() time.Time
	Logger     *zap.Logger
}

// RunOptions holds per-run settings
type RunOptions struct {
	Input       string
	Interactive bool
	MaxAttempts int
	MatchMode   store.MatchMode
	MethodTTL   time.Duration
	OnProgress  ProgressCallback
}

// Runner executes capture, discovery and the combined workflow.
type Runner struct {
	deps   Deps
	lookup *store.Lookup
	logger *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{
		deps:   deps,
		lookup: store.NewLookup(deps.Log, deps.Logger),
		logger: deps.Logger.Named("pipeline"),
	}
}

// CaptureResult is the outcome of a capture run. RecordID is empty when no
// tool was confirmed.
type CaptureResult struct {
	Outcome  *confirm.Outcome
	RecordID string
	Tool     types.ToolCandidate
	Display  *types.CaptureDisplay
}

// Captured reports whether a capture record was written.
func (r *CaptureResult) Captured() bool {
	return r.RecordID != ""
}

// WorkflowResult is the outcome of capture followed by discovery.
type WorkflowResult struct {
	Capture   *CaptureResult
	Discovery *discovery.Result
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, message, recordID string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: steps.StepRegistry[step].Category,
			Message:  message,
			RecordID: recordID,
			Content:  content,
		})
	}
}

func (r *Runner) complete(tr *steps.Tracker, opts *RunOptions, step, message, recordID string, content any) {
	if err := tr.Complete(step); err != nil {
		r.logger.Warn("step completed out of order", zap.String("step", step), zap.Error(err))
	}
	emitProgress(opts, step, message, recordID, content)
}

// meta returns the envelope metadata shared by every record of a run.
func (r *Runner) meta() map[string]any {
	return map[string]any{
		"model":   r.deps.Model,
		"sdk":     SDKName,
		"storage": r.deps.Log.Describe(),
	}
}

// Capture resolves and confirms a tool, records a capture-intent envelope and
// stores the confirmed candidate. An exhausted loop is a normal return with
// Captured() false.
func (r *Runner) Capture(ctx context.Context, opts RunOptions) (*CaptureResult, error) {
	return r.capture(ctx, steps.NewTracker(), &opts)
}

func (r *Runner) capture(ctx context.Context, tr *steps.Tracker, opts *RunOptions) (*CaptureResult, error) {
	res := resolver.New(r.deps.Oracle, resolver.Options{
		Candidates: r.deps.Candidates,
		Lookup:     r.lookup,
		MatchMode:  opts.MatchMode,
		Logger:     r.deps.Logger,
	})
	loop := confirm.NewLoop(res, r.deps.Prompter, confirm.Options{
		Interactive: opts.Interactive,
		MaxAttempts: opts.MaxAttempts,
		Logger:      r.deps.Logger,
	})

	outcome, err := loop.Run(ctx, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("tool confirmation failed: %w", err)
	}
	result := &CaptureResult{Outcome: outcome}
	if !outcome.Confirmed() {
		r.logger.Info("no tool confirmed", zap.Int("attempts", outcome.Attempts), zap.Stringer("state", outcome.State))
		r.message("Could not identify the tool after %d attempt(s).", outcome.Attempts)
		return result, nil
	}

	resolution := outcome.Resolution
	r.complete(tr, opts, steps.ResolveTool, fmt.Sprintf("Resolved %q from %s", outcome.Input, resolution.Source), "", resolution)
	selected := resolution.Selected()
	result.Tool = selected
	if !opts.Interactive && r.deps.Printer != nil {
		r.deps.Printer.PrintCandidate(&selected)
	}
	r.complete(tr, opts, steps.ConfirmTool, fmt.Sprintf("Confirmed %s", selected.ToolName), "", selected)

	payload := &types.CapturePayload{
		Candidates:     resolution.Candidates,
		SelectedIndex:  resolution.SelectedIndex,
		SelectedTool:   selected,
		Disambiguation: resolution.Disambiguation,
		Citations:      resolution.Citations,
	}
	env, err := types.NewCaptureEnvelope(store.NewRecordID(), r.deps.Now(), outcome.Input, payload, r.meta())
	if err != nil {
		return nil, err
	}
	id, err := r.deps.Log.Append(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to record capture: %w", err)
	}
	result.RecordID = id
	r.complete(tr, opts, steps.CaptureIntent, "Recorded capture", id, nil)

	r.storeCandidate(ctx, resolution)
	r.complete(tr, opts, steps.StoreCandidate, "Stored candidate", id, nil)

	result.Display = &types.CaptureDisplay{
		ID:             id,
		ToolName:       selected.ToolName,
		Developer:      selected.Developer,
		Domain:         selected.WebsiteDomain,
		Logo:           selected.LogoURL,
		Disambiguation: resolution.Disambiguation,
	}
	r.logger.Info("tool captured",
		zap.String("candidate_id", selected.CandidateID),
		zap.String("source", resolution.Source),
		zap.String("record_id", id))
	return result, nil
}

// storeCandidate upserts the confirmed candidate. The sentinel is never stored
// and candidate-store hits were already touched by the resolver.
func (r *Runner) storeCandidate(ctx context.Context, resolution *types.ToolResolution) {
	if r.deps.Candidates == nil || resolution.Source == types.SourceCandidateStore {
		return
	}
	selected := resolution.Selected()
	if selected.CandidateID == identity.UnknownCandidateID {
		return
	}
	if _, err := r.deps.Candidates.Store(ctx, selected); err != nil {
		r.logger.Warn("failed to store candidate", zap.String("candidate_id", selected.CandidateID), zap.Error(err))
	}
}

func (r *Runner) discoveryPipeline(opts *RunOptions) *discovery.Pipeline {
	dopts := discovery.Options{
		Candidates: r.deps.Candidates,
		Verifier:   r.deps.Verifier,
		TTL:        opts.MethodTTL,
		Now:        r.deps.Now,
		Meta:       r.meta(),
		Logger:     r.deps.Logger,
	}
	if r.deps.Prompter != nil {
		dopts.Chooser = r.deps.Prompter
	}
	if r.deps.Printer != nil {
		dopts.Presenter = r.deps.Printer
	}
	return discovery.New(r.deps.Oracle, r.deps.Log, dopts)
}

// Discover finds and selects an output method for a stored or captured candidate.
func (r *Runner) Discover(ctx context.Context, candidateID string, opts RunOptions) (*discovery.Result, error) {
	tr := steps.NewTracker()
	res, err := r.discoveryPipeline(&opts).RunByID(ctx, candidateID, opts.Interactive)
	if err != nil {
		return nil, err
	}
	r.completeDiscovery(tr, &opts, res)
	return res, nil
}

func (r *Runner) completeDiscovery(tr *steps.Tracker, opts *RunOptions, res *discovery.Result) {
	r.complete(tr, opts, steps.LookupCandidate, fmt.Sprintf("Found %s", res.Candidate.ToolName), "", res.Candidate)
	r.complete(tr, opts, steps.DiscoverMethods,
		fmt.Sprintf("%d methods (%s)", len(res.Discovery.Methods), res.Discovery.DiscoverySource), "", res.Discovery.Methods)
	r.complete(tr, opts, steps.SelectMethod, fmt.Sprintf("Selected %s", res.Selected().MethodName), "", res.Selected())
	r.complete(tr, opts, steps.RecordDiscovery, "Recorded discovery", res.RecordID, res.Display)
}

// Workflow captures a tool and then discovers its methods with the same
// oracle handle. Failing to confirm a tool, finding no methods or cancelling
// the method menu end the run normally with a partial result.
func (r *Runner) Workflow(ctx context.Context, opts RunOptions) (*WorkflowResult, error) {
	tr := steps.NewTracker()
	capture, err := r.capture(ctx, tr, &opts)
	if err != nil {
		return nil, err
	}
	result := &WorkflowResult{Capture: capture}
	if !capture.Captured() {
		return result, nil
	}
	if capture.Tool.CandidateID == identity.UnknownCandidateID {
		r.logger.Info("skipping discovery for unidentified tool")
		r.message("Tool was not identified; skipping method discovery.")
		return result, nil
	}

	res, err := r.discoveryPipeline(&opts).Run(ctx, capture.Tool, capture.Outcome.Input, opts.Interactive)
	switch {
	case errors.Is(err, discovery.ErrNoMethods):
		r.message("No output methods found for %s.", capture.Tool.ToolName)
		return result, nil
	case errors.Is(err, discovery.ErrNoSelection):
		r.message("No method selected.")
		return result, nil
	case err != nil:
		return nil, err
	}
	result.Discovery = res
	r.completeDiscovery(tr, &opts, res)
	return result, nil
}

func (r *Runner) message(format string, args ...any) {
	if r.deps.Printer != nil {
		r.deps.Printer.Messagef(format, args...)
	}
}
