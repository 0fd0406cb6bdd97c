// Package wizard owns the step state machine of the intake form: which step
// is active, when the applicant may move, and how the finished application
// is submitted.
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tbxark/formwizard/draft"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/gateway"
	"github.com/tbxark/formwizard/patch"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/validate"
)

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// Controller is the only component that reads or writes the application and
// its draft. All methods are safe for concurrent use; the submission request
// runs without holding the lock.
type Controller struct {
	mu         sync.Mutex
	model      form.Application
	step       types.Step
	reached    types.Step
	phase      types.Phase
	lastError  string
	generation uint64
	// inFlight stays set until the gateway call returns, even across Reset.
	inFlight bool
	loadErr  error

	store   draft.Store
	gateway gateway.Gateway
	logger  *slog.Logger
	metrics *Metrics

	subMu       sync.Mutex
	subscribers map[int]func(StepChange)
	nextSubID   int
}

// New creates a controller on step 1 and restores the draft held by store,
// if any. A nil store keeps the draft in memory only.
func New(ctx context.Context, store draft.Store, gw gateway.Gateway, opts ...Option) *Controller {
	if store == nil {
		store = draft.NewSlot(draft.NewMemoryCache(), "", "")
	}
	c := &Controller{
		model:       form.Defaults(),
		step:        types.FirstStep,
		reached:     types.FirstStep,
		phase:       types.PhaseEditing,
		store:       store,
		gateway:     gw,
		logger:      slog.Default(),
		subscribers: map[int]func(StepChange){},
	}
	for _, opt := range opts {
		opt(c)
	}

	app, ok, err := store.Load(ctx)
	switch {
	case err != nil:
		c.loadErr = err
		c.metrics.draftError("load")
		c.logger.Warn("Failed to load draft, starting empty", "error", err)
	case ok:
		c.model = app
		c.logger.Debug("Restored draft")
	}
	return c
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Model:      c.model.Clone(),
		Step:       c.step,
		Reached:    c.reached,
		Phase:      c.phase,
		Submitting: c.phase == types.PhaseSubmitting,
		Submitted:  c.phase == types.PhaseSubmitted,
		LastError:  c.lastError,
	}
}

// Subscribe registers fn for step changes. Calling the returned function
// removes it again. fn runs after the controller lock is released.
func (c *Controller) Subscribe(fn func(StepChange)) func() {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) notify(change *StepChange) {
	if change == nil {
		return
	}
	c.subMu.Lock()
	fns := make([]func(StepChange), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(*change)
	}
}

// moveLocked switches the active step. The caller holds c.mu.
func (c *Controller) moveLocked(to types.Step, reason string) *StepChange {
	if to == c.step {
		return nil
	}
	change := &StepChange{From: c.step, To: to, Reason: reason}
	c.metrics.transition(c.step, to)
	c.logger.Debug("Step changed", "from", int(c.step), "to", int(to), "reason", reason)
	c.step = to
	if to > c.reached {
		c.reached = to
	}
	return change
}

func (c *Controller) saveDraftLocked(ctx context.Context) {
	if err := c.store.Save(ctx, c.model); err != nil {
		c.metrics.draftError("save")
		c.logger.Warn("Failed to save draft", "error", err)
	}
}

func (c *Controller) clearDraftLocked(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.metrics.draftError("clear")
		c.logger.Warn("Failed to clear draft", "error", err)
	}
}

// mutate applies fn to a copy of the application and keeps the copy only
// when fn succeeds. Every successful mutation is written to the draft.
func (c *Controller) mutate(ctx context.Context, fn func(a *form.Application) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == types.PhaseSubmitted {
		return ErrSubmitted
	}
	next := c.model.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	c.model = next.Clone()
	c.saveDraftLocked(ctx)
	return nil
}

// UpdateField sets one typed field.
func UpdateField[V any](ctx context.Context, c *Controller, f form.Field[V], value V) error {
	return c.mutate(ctx, func(a *form.Application) error {
		f.Set(a, value)
		return nil
	})
}

// SetField sets the field named key from a loosely typed value, as decoded
// from JSON. Values that do not fit the field type are rejected, except for
// count fields which coerce anything non-numeric to 0.
func (c *Controller) SetField(ctx context.Context, key string, value any) error {
	info, ok := form.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return c.mutate(ctx, func(a *form.Application) error {
		updated, err := patch.Apply(*a, []patch.Operation{patch.Replace(info.Pointer(), value)}, patch.WithCoercer(form.CoerceValue))
		if err != nil {
			return fmt.Errorf("%w %q: %w", ErrFieldType, key, err)
		}
		*a = updated
		return nil
	})
}

var fieldPaths = func() map[string]bool {
	var paths []string
	for _, step := range types.Steps() {
		paths = append(paths, form.StepPointers(step)...)
	}
	return patch.AllowList(paths)
}()

// ApplyPatch applies RFC6902 operations to registered fields. The batch is
// all or nothing.
func (c *Controller) ApplyPatch(ctx context.Context, ops []patch.Operation) error {
	if err := patch.ValidateOperations(ops, fieldPaths); err != nil {
		return err
	}
	return c.mutate(ctx, func(a *form.Application) error {
		updated, err := patch.Apply(*a, ops, patch.WithCoercer(form.CoerceValue))
		if err != nil {
			return err
		}
		*a = updated
		return nil
	})
}

// Prefill copies the non-empty values of initial over the application, e.g.
// a breed chosen in the catalog before the wizard opened.
func (c *Controller) Prefill(ctx context.Context, initial form.Application) error {
	return c.mutate(ctx, func(a *form.Application) error {
		ops, err := patch.Prefill(*a, initial)
		if err != nil {
			return fmt.Errorf("failed to generate patches from initial values: %w", err)
		}
		updated, err := patch.Apply(*a, ops)
		if err != nil {
			return fmt.Errorf("failed to apply initial values: %w", err)
		}
		*a = updated
		return nil
	})
}

// Validate evaluates step against the current application.
func (c *Controller) Validate(step types.Step) (types.ValidationResult, error) {
	if !step.Valid() {
		return types.ValidationResult{}, fmt.Errorf("%w: %d", ErrStepOutOfRange, int(step))
	}
	c.mu.Lock()
	app := c.model.Clone()
	c.mu.Unlock()
	return validate.Step(app, step), nil
}

// ValidationErrors returns the operator-facing messages for step.
func (c *Controller) ValidationErrors(step types.Step) ([]string, error) {
	res, err := c.Validate(step)
	if err != nil {
		return nil, err
	}
	return res.Errors, nil
}

func (c *Controller) navigableLocked() error {
	switch c.phase {
	case types.PhaseSubmitted:
		return ErrSubmitted
	case types.PhaseSubmitting:
		return ErrSubmitInProgress
	}
	return nil
}

// GoToNextStep advances when the current step is valid. When it is not, the
// step stays put and the returned result carries the errors to show; that
// is not reported as an error.
func (c *Controller) GoToNextStep(ctx context.Context) (types.ValidationResult, error) {
	c.mu.Lock()
	if err := c.navigableLocked(); err != nil {
		c.mu.Unlock()
		return types.ValidationResult{}, err
	}
	res := validate.Step(c.model, c.step)
	if c.step == types.LastStep {
		c.mu.Unlock()
		return res, ErrLastStep
	}
	if !res.Valid {
		c.metrics.blockedAdvance(c.step)
		c.logger.Debug("Advance blocked by validation", "step", int(c.step), "errors", len(res.Errors))
		c.mu.Unlock()
		return res, nil
	}
	change := c.moveLocked(c.step+1, ReasonNext)
	c.mu.Unlock()

	c.notify(change)
	return res, nil
}

// GoToPreviousStep moves back one step. Going back is never gated by
// validation.
func (c *Controller) GoToPreviousStep(ctx context.Context) error {
	c.mu.Lock()
	if err := c.navigableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step == types.FirstStep {
		c.mu.Unlock()
		return ErrFirstStep
	}
	change := c.moveLocked(c.step-1, ReasonPrevious)
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// GoToStep jumps to step. Jumping back is always allowed; jumping forward
// only to a step already reached and only while every earlier step is valid.
func (c *Controller) GoToStep(ctx context.Context, step types.Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, int(step))
	}
	c.mu.Lock()
	if err := c.navigableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if step > c.step {
		if step > c.reached {
			c.mu.Unlock()
			return fmt.Errorf("%w: step %d has not been reached", ErrStepLocked, int(step))
		}
		if bad, ok := validate.FirstInvalid(c.model, step); ok {
			c.mu.Unlock()
			return fmt.Errorf("%w: step %d is incomplete", ErrStepLocked, int(bad))
		}
	}
	change := c.moveLocked(step, ReasonJump)
	c.mu.Unlock()

	c.notify(change)
	return nil
}

// LoadError returns the error of the draft load done by New, if any. A
// controller whose load failed holds defaults, and saving them would replace
// the stored draft.
func (c *Controller) LoadError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Submit sends the application through the gateway exactly once. It is only
// legal on the last step. On success the application and its draft are
// cleared; on failure everything is kept and the outcome explains why. Only
// misuse is reported as an error.
func (c *Controller) Submit(ctx context.Context) (types.SubmissionOutcome, error) {
	c.mu.Lock()
	switch {
	case c.phase == types.PhaseSubmitting || c.inFlight:
		c.mu.Unlock()
		return types.SubmissionOutcome{}, ErrSubmitInProgress
	case c.phase == types.PhaseSubmitted:
		c.mu.Unlock()
		return types.SubmissionOutcome{}, ErrSubmitted
	}
	if bad, ok := validate.FirstInvalid(c.model, types.LastStep+1); ok {
		c.mu.Unlock()
		c.metrics.submission("incomplete")
		return types.Failed("%s is incomplete", bad.Title()), fmt.Errorf("%w: step %d", ErrIncomplete, int(bad))
	}
	if c.step != types.LastStep {
		step := c.step
		c.mu.Unlock()
		return types.Failed("submit from the %s step", types.LastStep.Title()), fmt.Errorf("%w: on step %d", ErrNotLastStep, int(step))
	}
	c.phase = types.PhaseSubmitting
	c.inFlight = true
	c.lastError = ""
	generation := c.generation
	snapshot := c.model.Clone()
	c.mu.Unlock()

	c.logger.Info("Submitting application")
	outcome := c.callGateway(ctx, snapshot)
	if !outcome.Success && outcome.Error == "" {
		outcome.Error = "submission failed"
	}

	c.mu.Lock()
	c.inFlight = false
	if generation != c.generation {
		// Reset while the request was in flight; the reset state wins.
		c.mu.Unlock()
		c.logger.Info("Submission finished after reset", "success", outcome.Success)
		return outcome, nil
	}
	// Navigation is refused while submitting, so the step is still the last.
	if outcome.Success {
		c.model = form.Defaults()
		c.phase = types.PhaseSubmitted
		c.clearDraftLocked(ctx)
		c.metrics.submission("success")
		c.logger.Info("Application submitted")
	} else {
		c.phase = types.PhaseEditing
		c.lastError = outcome.Error
		c.metrics.submission("failure")
		c.logger.Warn("Submission failed", "error", outcome.Error)
	}
	c.mu.Unlock()
	return outcome, nil
}

func (c *Controller) callGateway(ctx context.Context, app form.Application) (outcome types.SubmissionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Submission gateway panicked", "panic", r)
			outcome = types.Failed("unexpected submission failure: %v", r)
		}
	}()
	if c.gateway == nil {
		return types.Failed("no submission gateway configured")
	}
	return c.gateway.Submit(ctx, app)
}

// Reset discards the application and its draft and returns to step 1. It is
// legal in every phase.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.model = form.Defaults()
	c.phase = types.PhaseEditing
	c.lastError = ""
	c.reached = types.FirstStep
	c.generation++
	c.clearDraftLocked(ctx)
	change := c.moveLocked(types.FirstStep, ReasonReset)
	c.mu.Unlock()

	c.notify(change)
}
