// Package interact opens a hidden status item's menu on the user's behalf.
// The item is revealed, its menu triggered through a ladder of accessibility
// actions, and the bar is only restored once the menu is actually gone, so
// the user's interaction is never yanked out from under the cursor.
package interact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/tidybar/tidybar/internal/model"
	"github.com/tidybar/tidybar/internal/placement"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/sched"
)

var (
	// ErrItemNotFound means the requested item could not be re-resolved in a
	// fresh scan.
	ErrItemNotFound = errors.New("item not found")
	// ErrMenuDidNotOpen means every trigger attempt failed to produce an
	// open-menu signal.
	ErrMenuDidNotOpen = errors.New("menu did not open")
)

// RevealLock keeps the hidden section expanded while held. Acquire nests;
// the section collapses only when every holder has released.
type RevealLock interface {
	Acquire()
	Release()
}

// Tuning holds the proxy's timing constants.
type Tuning struct {
	// TriggerAttempts is how many times the action ladder is climbed.
	TriggerAttempts uint
	TriggerDelay    time.Duration

	// OpenPollBudget bounds how long one trigger waits for an open signal.
	OpenPollBudget   time.Duration
	OpenPollInterval time.Duration

	// Dismissal needs QuietSamples consecutive polls with no open signal, no
	// popup under the cursor, and no very recent input.
	QuietSamples        int
	DismissPollInterval time.Duration
	InputQuiet          time.Duration
	// DismissWatchdog force-dismisses with Escape if the menu never reads
	// closed, so a stuck signal cannot pin the bar open forever.
	DismissWatchdog time.Duration
}

// DefaultTuning returns the production constants.
func DefaultTuning() Tuning {
	return Tuning{
		TriggerAttempts:     4,
		TriggerDelay:        60 * time.Millisecond,
		OpenPollBudget:      340 * time.Millisecond,
		OpenPollInterval:    40 * time.Millisecond,
		QuietSamples:        3,
		DismissPollInterval: 120 * time.Millisecond,
		InputQuiet:          150 * time.Millisecond,
		DismissWatchdog:     6 * time.Second,
	}
}

// Config wires a proxy's collaborators.
type Config struct {
	Provider *platform.Provider
	Clock    sched.Clock
	// Scan re-reads the bar so the proxy works against live handles, not the
	// possibly stale snapshots the caller holds.
	Scan func() []model.ItemSnapshot
	// Reveal expands the hidden section for the duration of the activation.
	Reveal RevealLock
	// Shield settles the bar's layout under the reveal, the same choreography
	// relocation uses, and returns the restore. Optional.
	Shield func(ctx context.Context) func()
	// Dividers reports current divider frames, used to tell which end of the
	// bar is the visible one. Optional; without it a left-to-right bar is
	// assumed.
	Dividers func() placement.DividerFrames
	// CancelRestore cancels any pending section-restore timer before the
	// reveal, so a restore scheduled by an earlier activation cannot collapse
	// the bar mid-interaction. Optional.
	CancelRestore func()
	// AfterDismiss runs once the menu is gone (or was never opened): restore
	// sections and rescan. Optional.
	AfterDismiss func()
	Tuning       Tuning
	Log          zerolog.Logger
}

// Proxy opens status-item menus.
type Proxy struct {
	cfg     Config
	log     zerolog.Logger
	signals []openSignal
}

// New creates a proxy.
func New(cfg Config) *Proxy {
	if cfg.Clock == nil {
		cfg.Clock = sched.RealClock{}
	}
	if cfg.Tuning.TriggerAttempts == 0 {
		cfg.Tuning = DefaultTuning()
	}
	return &Proxy{
		cfg:     cfg,
		log:     cfg.Log.With().Str("component", "interact").Logger(),
		signals: defaultSignals(cfg.Provider),
	}
}

// Activate reveals the item and opens its menu, blocking until the menu is
// dismissed again. The bar is restored on every path out.
func (p *Proxy) Activate(ctx context.Context, want model.ItemSnapshot) error {
	if p.cfg.CancelRestore != nil {
		p.cfg.CancelRestore()
	}
	if p.cfg.Reveal != nil {
		p.cfg.Reveal.Acquire()
		defer p.cfg.Reveal.Release()
	}
	if p.cfg.AfterDismiss != nil {
		defer p.cfg.AfterDismiss()
	}
	if p.cfg.Shield != nil {
		restore := p.cfg.Shield(ctx)
		defer restore()
	}

	live, ok := p.resolve(want)
	if !ok {
		return fmt.Errorf("%w: %q", ErrItemNotFound, want.ID)
	}

	if err := p.trigger(ctx, live); err != nil {
		return err
	}
	p.awaitDismissal(ctx, live)
	return nil
}

// resolve re-finds the wanted item in a fresh scan, in confidence order:
// identifier, owner index, id, title. Ties go to the candidate closest to
// the visible end of the bar, which end that is depending on divider order.
func (p *Proxy) resolve(want model.ItemSnapshot) (model.ItemSnapshot, bool) {
	items := p.cfg.Scan()
	visibleRight := p.visibleEndIsRight()

	pick := func(match func(model.ItemSnapshot) bool) (model.ItemSnapshot, bool) {
		var best model.ItemSnapshot
		found := false
		for _, c := range items {
			if c.Owner != want.Owner || !match(c) {
				continue
			}
			closer := c.Frame.X > best.Frame.X
			if !visibleRight {
				closer = c.Frame.X < best.Frame.X
			}
			if !found || closer {
				best = c
				found = true
			}
		}
		return best, found
	}

	if want.Identifier != "" {
		if it, ok := pick(func(c model.ItemSnapshot) bool { return c.Identifier == want.Identifier }); ok {
			return it, true
		}
	}
	if it, ok := pick(func(c model.ItemSnapshot) bool { return c.Index == want.Index }); ok {
		return it, true
	}
	if it, ok := pick(func(c model.ItemSnapshot) bool { return c.ID == want.ID }); ok {
		return it, true
	}
	if want.Title != "" {
		if it, ok := pick(func(c model.ItemSnapshot) bool { return c.Title == want.Title }); ok {
			return it, true
		}
	}
	return model.ItemSnapshot{}, false
}

// visibleEndIsRight reports whether the visible stretch of the bar sits to
// the right of the dividers, which it does on a left-to-right bar.
func (p *Proxy) visibleEndIsRight() bool {
	if p.cfg.Dividers == nil {
		return true
	}
	d := p.cfg.Dividers()
	return !d.HiddenKnown || !d.AlwaysKnown || d.Always.MidX() <= d.Hidden.MidX()
}

// trigger climbs the action ladder until an open signal fires: show-menu,
// press, then a synthesized right-click for items that implement neither.
func (p *Proxy) trigger(ctx context.Context, item model.ItemSnapshot) error {
	t := p.cfg.Tuning
	attempt := 0
	err := retry.Do(
		func() error {
			p.fire(item, attempt)
			attempt++
			if p.awaitOpen(ctx, item) {
				return nil
			}
			return ErrMenuDidNotOpen
		},
		retry.Context(ctx),
		retry.Attempts(t.TriggerAttempts),
		retry.Delay(t.TriggerDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		p.log.Warn().Str("id", item.ID).Err(err).Msg("activation failed")
		return fmt.Errorf("activate %q: %w", item.ID, err)
	}
	return nil
}

func (p *Proxy) fire(item model.ItemSnapshot, attempt int) {
	el, _ := item.Handle.(platform.Element)
	switch {
	case attempt == 0 && el != nil:
		if err := el.Perform(platform.ActionShowMenu); err == nil {
			return
		}
		fallthrough
	case attempt == 1 && el != nil:
		if err := el.Perform(platform.ActionPress); err == nil {
			return
		}
		fallthrough
	default:
		if err := p.cfg.Provider.Input.Click(item.Frame.Center(), platform.MouseRight); err != nil {
			p.log.Debug().Err(err).Str("id", item.ID).Msg("right-click failed")
		}
	}
}

// awaitOpen polls the open signals for up to the poll budget.
func (p *Proxy) awaitOpen(ctx context.Context, item model.ItemSnapshot) bool {
	t := p.cfg.Tuning
	deadline := p.cfg.Clock.Now().Add(t.OpenPollBudget)
	for {
		if name, open := p.anyOpen(item); open {
			p.log.Debug().Str("id", item.ID).Str("signal", name).Msg("menu open")
			return true
		}
		if !p.cfg.Clock.Now().Before(deadline) || ctx.Err() != nil {
			return false
		}
		if err := sched.Sleep(ctx, p.cfg.Clock, t.OpenPollInterval); err != nil {
			return false
		}
	}
}

func (p *Proxy) anyOpen(item model.ItemSnapshot) (string, bool) {
	for _, s := range p.signals {
		if s.open(item) {
			return s.name, true
		}
	}
	return "", false
}

// awaitDismissal blocks until the menu reads closed for several consecutive
// samples, with hover and input-recency guards so a menu the user is still
// mousing through is never declared gone. The watchdog force-dismisses.
func (p *Proxy) awaitDismissal(ctx context.Context, item model.ItemSnapshot) {
	t := p.cfg.Tuning
	deadline := p.cfg.Clock.Now().Add(t.DismissWatchdog)
	quiet := 0
	for {
		if !p.cfg.Clock.Now().Before(deadline) {
			if _, stillOpen := p.anyOpen(item); stillOpen {
				p.log.Warn().Str("id", item.ID).Msg("dismissal watchdog fired, sending escape")
				if err := p.cfg.Provider.Input.KeyPress("escape"); err != nil {
					p.log.Debug().Err(err).Msg("escape failed")
				}
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		_, open := p.anyOpen(item)
		hovering := p.cursorOverPopup()
		recentInput := p.cfg.Provider.UI.TimeSinceLastInput() < t.InputQuiet
		if !open && !hovering && !recentInput {
			quiet++
			if quiet >= t.QuietSamples {
				return
			}
		} else {
			quiet = 0
		}

		if err := sched.Sleep(ctx, p.cfg.Clock, t.DismissPollInterval); err != nil {
			return
		}
	}
}

func (p *Proxy) cursorOverPopup() bool {
	cursor := p.cfg.Provider.Input.CursorLocation()
	_, ok := p.cfg.Provider.Windows.WindowAt(cursor, platform.PopupWindowLayer)
	return ok
}

// openSignal is one independent way of telling that a menu is open. Signals
// are OR-combined; any one firing counts.
type openSignal struct {
	name string
	open func(item model.ItemSnapshot) bool
}

func defaultSignals(prov *platform.Provider) []openSignal {
	return []openSignal{
		{name: "ax-expanded", open: func(item model.ItemSnapshot) bool {
			el, ok := item.Handle.(platform.Element)
			if !ok || el == nil {
				return false
			}
			if v, ok := el.Attr(platform.AttrExpanded); ok {
				if expanded, ok := v.AsBool(); ok && expanded {
					return true
				}
			}
			_, shown := el.Attr(platform.AttrMenuShown)
			return shown
		}},
		{name: "popup-window", open: func(item model.ItemSnapshot) bool {
			windows, err := prov.Windows.Windows(platform.PopupWindowLayer)
			if err != nil {
				return false
			}
			for _, w := range windows {
				if w.Owner == item.Owner || (item.OwnerPID != 0 && w.PID == item.OwnerPID) {
					return true
				}
			}
			return false
		}},
		{name: "menu-tracking", open: func(model.ItemSnapshot) bool {
			return prov.UI.MenuTrackingActive()
		}},
		{name: "popup-under-cursor", open: func(model.ItemSnapshot) bool {
			cursor := prov.Input.CursorLocation()
			_, ok := prov.Windows.WindowAt(cursor, platform.PopupWindowLayer)
			return ok
		}},
	}
}
