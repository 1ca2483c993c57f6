// Package relocate moves status items between menu-bar sections by
// synthesizing command-drags. The OS gives no direct placement API, so a
// move is drag, settle, rescan, verify, and the engine adapts its settle
// delay to however fast this machine's menu bar actually relayouts.
package relocate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidybar/tidybar/internal/geometry"
	"github.com/tidybar/tidybar/internal/model"
	"github.com/tidybar/tidybar/internal/placement"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/sched"
)

var (
	// ErrNotHideable marks items the system will not keep hidden; moving
	// them out of the visible section is declined up front.
	ErrNotHideable = errors.New("item cannot be hidden")
	// ErrItemNotFound means the requested id matched nothing in the scan.
	ErrItemNotFound = errors.New("item not found")
	// ErrDividerUnknown means the divider bounding the target section has no
	// known frame, so there is nowhere to drag to.
	ErrDividerUnknown = errors.New("divider position unknown")
	// ErrNotSettled means every drag attempt failed verification.
	ErrNotSettled = errors.New("item did not settle in target section")
)

// Tuning holds the drag loop's adaptive constants.
type Tuning struct {
	// SettleStart seeds the post-drag settle delay; successes shrink it by
	// SettleDecay down to SettleFloor, failures add SettleBackoff up to
	// SettleCeil.
	SettleStart   time.Duration
	SettleFloor   time.Duration
	SettleCeil    time.Duration
	SettleDecay   float64
	SettleBackoff time.Duration

	MaxAttempts int

	// DividerPollBudget bounds how long to wait for divider frames to
	// reappear after a drag shuffles the bar.
	DividerPollBudget   time.Duration
	DividerPollInterval time.Duration

	// Verification requires the item's midpoint to clear the section
	// boundary by a fraction of the item's width, tightening with each
	// attempt: MarginBase + MarginStep*attempt, capped at MarginCap.
	MarginBase float64
	MarginStep float64
	MarginCap  float64

	// Zig-zag spread of successive drag destinations around the base point.
	SpreadStep float64
	// Clearance between the drag destination and the divider's edge.
	Clearance float64

	// ShieldHold is how long each phase of the shield sequence is held
	// before the next visibility change.
	ShieldHold time.Duration

	DragSteps    int
	DragDuration time.Duration
}

// DefaultTuning returns the production constants.
func DefaultTuning() Tuning {
	return Tuning{
		SettleStart:         125 * time.Millisecond,
		SettleFloor:         70 * time.Millisecond,
		SettleCeil:          320 * time.Millisecond,
		SettleDecay:         0.88,
		SettleBackoff:       24 * time.Millisecond,
		MaxAttempts:         7,
		DividerPollBudget:   1400 * time.Millisecond,
		DividerPollInterval: 100 * time.Millisecond,
		MarginBase:          0.22,
		MarginStep:          0.02,
		MarginCap:           0.30,
		SpreadStep:          14,
		Clearance:           28,
		ShieldHold:          80 * time.Millisecond,
		DragSteps:           12,
		DragDuration:        90 * time.Millisecond,
	}
}

// BarVisibility is the shown/collapsed state of the two collapsible
// sections, as driven through the divider control items.
type BarVisibility struct {
	HiddenShown bool
	AlwaysShown bool
}

// DividerControl expands and collapses the bar sections. Implemented by the
// divider-toggle subsystem; the engine only choreographs it.
type DividerControl interface {
	Visibility() BarVisibility
	SetVisibility(BarVisibility)
}

// Shield forces the OS to settle the bar's layout before anything is
// measured: show both sections, briefly re-hide the hidden one, then show it
// again. Revealing both sections at once races the OS relayout; the
// intermediate re-hide sequences the two expansions. The returned func
// restores the visibility captured on entry and must always be called.
func Shield(ctx context.Context, clock sched.Clock, ctrl DividerControl, hold time.Duration) func() {
	if ctrl == nil {
		return func() {}
	}
	prior := ctrl.Visibility()
	ctrl.SetVisibility(BarVisibility{HiddenShown: true, AlwaysShown: true})
	_ = sched.Sleep(ctx, clock, hold)
	ctrl.SetVisibility(BarVisibility{HiddenShown: false, AlwaysShown: true})
	_ = sched.Sleep(ctx, clock, hold)
	ctrl.SetVisibility(BarVisibility{HiddenShown: true, AlwaysShown: true})
	return func() { ctrl.SetVisibility(prior) }
}

// Config wires an engine's collaborators.
type Config struct {
	Provider *platform.Provider
	Clock    sched.Clock
	Resolver *placement.Resolver
	// Scan re-reads the bar without icon capture.
	Scan func() []model.ItemSnapshot
	// Dividers reports current divider frames, last-known fallbacks applied.
	Dividers func() placement.DividerFrames
	// Control drives section visibility for the shield sequence. Optional;
	// without it moves run against whatever is currently expanded.
	Control DividerControl
	// RemapIcon is told when a verified move changed the item's id, so cached
	// icons follow the item. Optional.
	RemapIcon func(oldID, newID string)
	Tuning    Tuning
	Log       zerolog.Logger
}

// Engine performs relocations. Owned by the manager's run loop; one move at
// a time.
type Engine struct {
	cfg    Config
	log    zerolog.Logger
	settle time.Duration
}

// New creates an engine with the settle delay seeded from tuning.
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = sched.RealClock{}
	}
	if cfg.Tuning.MaxAttempts <= 0 {
		cfg.Tuning = DefaultTuning()
	}
	return &Engine{
		cfg:    cfg,
		log:    cfg.Log.With().Str("component", "relocate").Logger(),
		settle: cfg.Tuning.SettleStart,
	}
}

// SettleDelay reports the current adaptive settle delay.
func (e *Engine) SettleDelay() time.Duration { return e.settle }

// Result reports a completed move.
type Result struct {
	// NewID is the item's id after the move; identity often shifts when an
	// index-based id is renumbered by the relayout.
	NewID string
	// Items is the scan the move was verified against, or the input scan
	// when no drag was needed.
	Items []model.ItemSnapshot
	// Attempts is how many drags were made.
	Attempts int
	// Moved is false when the item was already in the target section.
	Moved bool
}

// Move relocates the identified item into the target section. It drags, lets
// the bar settle, rescans, and verifies, retrying with spread-out
// destinations until the item sticks or attempts run out. Already-placed
// items are left untouched.
func (e *Engine) Move(ctx context.Context, items []model.ItemSnapshot, id string, target model.Placement) (Result, error) {
	item, ok := findByID(items, id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	if target != model.PlacementVisible {
		if reason, blocked := model.NonHideableReason(item); blocked {
			return Result{}, fmt.Errorf("%w: %s", ErrNotHideable, reason)
		}
	}

	d := e.cfg.Dividers()
	if placement.Classify(d, item.MidX()) == target {
		return Result{NewID: id, Items: items, Moved: false}, nil
	}

	// Optimistic: placement queries made while the drag settles already
	// report the target section.
	e.cfg.Resolver.SetPending(id, target)
	settled := false
	defer func() {
		if !settled {
			e.cfg.Resolver.ClearPending(id)
		}
	}()

	input := e.cfg.Provider.Input
	origCursor := input.CursorLocation()
	input.HideCursor()
	defer func() {
		input.MoveCursor(origCursor)
		input.ShowCursor()
	}()

	t := e.cfg.Tuning

	// Settle the bar's own layout before measuring where to drag to, and
	// put the sections back how the user had them whatever happens next.
	restoreBar := Shield(ctx, e.cfg.Clock, e.cfg.Control, t.ShieldHold)
	defer restoreBar()

	d = e.awaitDividers(ctx, target)
	if err := requireDividers(d, target); err != nil {
		return Result{}, err
	}

	current := item
	for attempt := 0; attempt < t.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempt}, err
		}

		dest := e.destination(d, target, attempt)
		e.log.Debug().Str("id", id).Int("attempt", attempt).
			Float64("dest_x", dest.X).Dur("settle", e.settle).Msg("drag")

		if err := input.Drag(current.Frame.Center(), dest, platform.DragOptions{
			Button:    platform.MouseLeft,
			Modifiers: platform.ModCommand,
			Steps:     t.DragSteps,
			Duration:  t.DragDuration,
		}); err != nil {
			e.log.Warn().Err(err).Str("id", id).Msg("drag failed")
			e.backoff()
			continue
		}

		if err := sched.Sleep(ctx, e.cfg.Clock, e.settle); err != nil {
			return Result{Attempts: attempt + 1}, err
		}
		d = e.awaitDividers(ctx, target)

		rescan := e.cfg.Scan()
		next, ok := model.MatchDrifted(model.Tracked(current), rescan)
		if !ok {
			e.log.Debug().Str("id", id).Msg("item lost after drag, retrying")
			e.backoff()
			continue
		}
		current = next

		if e.verified(d, next, target, attempt) {
			e.relax()
			settled = true
			e.cfg.Resolver.ClearPending(id)
			if next.ID != id && e.cfg.RemapIcon != nil {
				e.cfg.RemapIcon(id, next.ID)
			}
			e.log.Info().Str("id", id).Str("new_id", next.ID).
				Str("target", target.String()).Int("attempts", attempt+1).Msg("moved")
			return Result{NewID: next.ID, Items: rescan, Attempts: attempt + 1, Moved: true}, nil
		}
		e.backoff()
	}

	e.log.Warn().Str("id", id).Str("target", target.String()).Msg("move did not settle")
	return Result{Attempts: t.MaxAttempts}, fmt.Errorf("%w: %q to %s", ErrNotSettled, id, target)
}

func (e *Engine) relax() {
	t := e.cfg.Tuning
	e.settle = time.Duration(float64(e.settle) * t.SettleDecay)
	if e.settle < t.SettleFloor {
		e.settle = t.SettleFloor
	}
}

func (e *Engine) backoff() {
	t := e.cfg.Tuning
	e.settle += t.SettleBackoff
	if e.settle > t.SettleCeil {
		e.settle = t.SettleCeil
	}
}

func requireDividers(d placement.DividerFrames, target model.Placement) error {
	switch target {
	case model.PlacementFloating:
		if !d.AlwaysKnown {
			return fmt.Errorf("%w: always-hidden divider", ErrDividerUnknown)
		}
	default:
		if !d.HiddenKnown {
			return fmt.Errorf("%w: hidden divider", ErrDividerUnknown)
		}
	}
	return nil
}

// awaitDividers polls until the divider bounding the target section has a
// frame again, bounded by the poll budget. Drags shuffle the whole bar and
// the dividers are briefly unresolvable mid-relayout.
func (e *Engine) awaitDividers(ctx context.Context, target model.Placement) placement.DividerFrames {
	t := e.cfg.Tuning
	deadline := e.cfg.Clock.Now().Add(t.DividerPollBudget)
	for {
		d := e.cfg.Dividers()
		if requireDividers(d, target) == nil {
			return d
		}
		if !e.cfg.Clock.Now().Before(deadline) || ctx.Err() != nil {
			return d
		}
		if err := sched.Sleep(ctx, e.cfg.Clock, t.DividerPollInterval); err != nil {
			return d
		}
	}
}

// destination picks the drag end point for this attempt: just inside the
// target section past its bounding divider, zig-zagged outward on retries so
// a destination the bar refuses is not hit twice.
func (e *Engine) destination(d placement.DividerFrames, target model.Placement, attempt int) geometry.Point {
	t := e.cfg.Tuning
	ltr := !d.AlwaysKnown || !d.HiddenKnown || d.Always.MidX() <= d.Hidden.MidX()
	zig := zigzag(attempt, t.SpreadStep)

	var x, y float64
	switch target {
	case model.PlacementFloating:
		y = d.Always.MidY()
		if ltr {
			x = d.Always.X - t.Clearance + zig
		} else {
			x = d.Always.MaxX() + t.Clearance + zig
		}
	case model.PlacementHidden:
		y = d.Hidden.MidY()
		if ltr {
			x = d.Hidden.X - t.Clearance + zig
			if d.AlwaysKnown && x < d.Always.MaxX()+4 {
				x = d.Always.MaxX() + 4
			}
		} else {
			x = d.Hidden.MaxX() + t.Clearance + zig
			if d.AlwaysKnown && x > d.Always.X-4 {
				x = d.Always.X - 4
			}
		}
	default:
		y = d.Hidden.MidY()
		if ltr {
			x = d.Hidden.MaxX() + t.Clearance + zig
		} else {
			x = d.Hidden.X - t.Clearance + zig
		}
	}
	return e.clampToDisplay(geometry.Point{X: x, Y: y})
}

// clampToDisplay pins a destination inside the bounds of the display it falls
// on, so a divider sitting near a screen edge never produces a drag request
// off-screen.
func (e *Engine) clampToDisplay(p geometry.Point) geometry.Point {
	displays, err := e.cfg.Provider.Windows.Displays()
	if err != nil || len(displays) == 0 {
		return p
	}
	disp, ok := geometry.DisplayForPoint(displays, p)
	if !ok {
		return p
	}
	return disp.Frame.ClampPoint(p)
}

// zigzag spreads retries symmetrically: 0, +s, -s, +2s, -2s, ...
func zigzag(attempt int, step float64) float64 {
	amp := step * float64((attempt+1)/2)
	if attempt%2 == 0 {
		return -amp
	}
	return amp
}

// verified checks that the item classified into the target section and
// cleared the boundary by the attempt's margin, so a drop right on a divider
// edge is retried instead of trusted.
func (e *Engine) verified(d placement.DividerFrames, item model.ItemSnapshot, target model.Placement, attempt int) bool {
	m := item.MidX()
	if placement.Classify(d, m) != target {
		return false
	}
	t := e.cfg.Tuning
	frac := t.MarginBase + t.MarginStep*float64(attempt)
	if frac > t.MarginCap {
		frac = t.MarginCap
	}
	margin := item.Frame.Width * frac

	dist := math.Inf(1)
	if d.HiddenKnown {
		dist = math.Min(dist, math.Abs(m-d.Hidden.MidX()))
	}
	if d.AlwaysKnown {
		dist = math.Min(dist, math.Abs(m-d.Always.MidX()))
	}
	return dist >= margin
}

func findByID(items []model.ItemSnapshot, id string) (model.ItemSnapshot, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.ItemSnapshot{}, false
}
