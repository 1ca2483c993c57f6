// Package manager is the long-running orchestrator: it owns the settings,
// the icon caches, and the scan/placement/relocation/interaction machinery,
// and confines all of that mutable state to a single run-loop goroutine.
// Everything public posts onto the loop; nothing shares memory with it.
package manager

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tidybar/tidybar/internal/config"
	"github.com/tidybar/tidybar/internal/iconcache"
	"github.com/tidybar/tidybar/internal/interact"
	"github.com/tidybar/tidybar/internal/model"
	"github.com/tidybar/tidybar/internal/placement"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/relocate"
	"github.com/tidybar/tidybar/internal/scanner"
	"github.com/tidybar/tidybar/internal/sched"
)

// ErrStopped is returned for calls made after Stop.
var ErrStopped = errors.New("manager stopped")

const (
	rescanKey  = "rescan"
	restoreKey = "restore"
	saveKey    = "save"
)

// Config wires a manager.
type Config struct {
	Provider      *platform.Provider
	Clock         sched.Clock
	SettingsPath  string
	IconCachePath string

	// Control drives bar-section visibility for the shield sequences the
	// engine and the proxy run. Supplied by the divider-toggle subsystem;
	// optional.
	Control relocate.DividerControl

	// RescanInterval drives periodic background rescans; RescanDebounce
	// coalesces rescans requested in bursts.
	RescanInterval time.Duration
	RescanDebounce time.Duration
	// RestoreDelay is how long after the last reveal holder releases before
	// the hidden section collapses again.
	RestoreDelay time.Duration
	// SaveDelay debounces settings and icon-cache writes.
	SaveDelay time.Duration

	RelocateTuning relocate.Tuning
	InteractTuning interact.Tuning
	Log            zerolog.Logger
}

func (c *Config) fillDefaults() {
	if c.Clock == nil {
		c.Clock = sched.RealClock{}
	}
	if c.RescanInterval <= 0 {
		c.RescanInterval = 5 * time.Second
	}
	if c.RescanDebounce <= 0 {
		c.RescanDebounce = 250 * time.Millisecond
	}
	if c.RestoreDelay <= 0 {
		c.RestoreDelay = 400 * time.Millisecond
	}
	if c.SaveDelay <= 0 {
		c.SaveDelay = 2 * time.Second
	}
	if c.RelocateTuning.MaxAttempts == 0 {
		c.RelocateTuning = relocate.DefaultTuning()
	}
	if c.InteractTuning.TriggerAttempts == 0 {
		c.InteractTuning = interact.DefaultTuning()
	}
}

// State is the published view of the bar, safe to hand out.
type State struct {
	Items     []model.ItemSnapshot    `yaml:"items" json:"items"`
	Lanes     placement.Lanes         `yaml:"lanes" json:"lanes"`
	Dividers  placement.DividerFrames `yaml:"-" json:"-"`
	Enabled   bool                    `yaml:"enabled" json:"enabled"`
	Revealed  bool                    `yaml:"revealed" json:"revealed"`
	UpdatedAt time.Time               `yaml:"updated_at" json:"updated_at"`
}

// Manager runs the bar.
type Manager struct {
	cfg Config
	log zerolog.Logger

	provider *platform.Provider
	scanner  *scanner.Scanner
	resolver *placement.Resolver
	engine   *relocate.Engine
	proxy    *interact.Proxy
	sched    *sched.Scheduler
	icons    *iconcache.Cache

	// Loop-confined state.
	settings      config.Settings
	memIcons      map[string]image.Image
	tracked       map[string]model.TrackedItem
	queue         *relocate.Queue
	revealCount   int
	alwaysEnabled bool

	cmds   chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.RWMutex
	published State
}

// New builds a manager and loads its persisted state. Start begins the loop.
func New(cfg Config) (*Manager, error) {
	cfg.fillDefaults()
	log := cfg.Log.With().Str("component", "manager").Logger()

	settings, err := config.Load(cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:           cfg,
		log:           log,
		provider:      cfg.Provider,
		scanner:       scanner.New(cfg.Provider, cfg.Log),
		resolver:      placement.New(cfg.Log),
		settings:      settings,
		memIcons:      make(map[string]image.Image),
		tracked:       make(map[string]model.TrackedItem),
		queue:         relocate.NewQueue(),
		alwaysEnabled: true,
		cmds:          make(chan func(), 64),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	m.sched = sched.New(cfg.Clock, m.post)
	m.icons = iconcache.New(cfg.IconCachePath, cfg.Log)
	m.icons.Load()

	m.engine = relocate.New(relocate.Config{
		Provider:  cfg.Provider,
		Clock:     cfg.Clock,
		Resolver:  m.resolver,
		Scan:      func() []model.ItemSnapshot { return m.scanner.Scan(scanner.Options{}) },
		Dividers:  m.currentDividers,
		Control:   cfg.Control,
		RemapIcon: m.remapID,
		Tuning:    cfg.RelocateTuning,
		Log:       cfg.Log,
	})
	m.proxy = interact.New(interact.Config{
		Provider: cfg.Provider,
		Clock:    cfg.Clock,
		Scan:     func() []model.ItemSnapshot { return m.scanner.Scan(scanner.Options{}) },
		Reveal:   (*revealLock)(m),
		Shield: func(ctx context.Context) func() {
			return relocate.Shield(ctx, cfg.Clock, cfg.Control, cfg.RelocateTuning.ShieldHold)
		},
		Dividers:      m.currentDividers,
		CancelRestore: func() { m.sched.CancelKey(restoreKey) },
		AfterDismiss:  func() { m.scheduleRestore(); m.refresh(false) },
		Tuning:        cfg.InteractTuning,
		Log:           cfg.Log,
	})
	return m, nil
}

// Start runs the loop, performs the initial scan, and begins periodic
// rescans.
func (m *Manager) Start() {
	go m.loop()
	m.post(func() {
		m.refresh(true)
		m.schedulePeriodic()
	})
}

func (m *Manager) loop() {
	defer close(m.done)
	for {
		select {
		case fn := <-m.cmds:
			fn()
		case <-m.ctx.Done():
			m.shutdown()
			return
		}
	}
}

// shutdown restores a safe baseline from inside the loop before it exits.
func (m *Manager) shutdown() {
	m.sched.Stop()
	m.revealCount = 0
	if err := config.Save(m.cfg.SettingsPath, m.settings); err != nil {
		m.log.Warn().Err(err).Msg("settings save failed")
	}
	if err := m.icons.Save(); err != nil {
		m.log.Warn().Err(err).Msg("icon cache save failed")
	}
	m.mu.Lock()
	m.published.Enabled = false
	m.published.Revealed = false
	m.mu.Unlock()
	m.log.Info().Msg("stopped")
}

// Stop tears the loop down and waits for the baseline restore.
func (m *Manager) Stop() {
	m.cancel()
	<-m.done
}

// post hands fn to the loop without waiting. Dropped after Stop.
func (m *Manager) post(fn func()) {
	select {
	case m.cmds <- fn:
	case <-m.ctx.Done():
	}
}

// call runs fn on the loop and waits for it.
func (m *Manager) call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		fn()
		close(ran)
	}
	select {
	case m.cmds <- wrapped:
	case <-m.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ran:
		return nil
	case <-m.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the last published view.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published
}

// Rescan forces a refresh and returns the new state.
func (m *Manager) Rescan(ctx context.Context, icons bool) (State, error) {
	err := m.call(ctx, func() { m.refresh(icons) })
	if err != nil {
		return State{}, err
	}
	return m.State(), nil
}

// Move relocates an item and reports the outcome, including the id it
// settled under and whether a drag was actually needed.
func (m *Manager) Move(ctx context.Context, id string, target model.Placement, bar bool) (relocate.Result, error) {
	var res relocate.Result
	var moveErr error
	err := m.call(ctx, func() {
		res, moveErr = m.performMove(ctx, relocate.Request{ID: id, Target: target, Bar: bar})
	})
	if err != nil {
		return relocate.Result{}, err
	}
	return res, moveErr
}

// RequestMove queues a relocation without waiting. Requests for an item
// already waiting replace each other; the last one wins.
func (m *Manager) RequestMove(id string, target model.Placement, bar bool) {
	m.post(func() {
		m.queue.Offer(relocate.Request{ID: id, Target: target, Bar: bar})
		m.drainQueue()
	})
}

func (m *Manager) drainQueue() {
	for {
		req, ok := m.queue.Next()
		if !ok {
			return
		}
		if _, err := m.performMove(m.ctx, req); err != nil {
			m.log.Warn().Err(err).Str("id", req.ID).Msg("queued move failed")
		}
	}
}

func (m *Manager) performMove(ctx context.Context, req relocate.Request) (relocate.Result, error) {
	// Capture the item's icon now if we do not have one yet: once it leaves
	// the visible section its backing window may become uncapturable.
	var opts scanner.Options
	if req.Target != model.PlacementVisible {
		_, cached := m.memIcons[req.ID]
		opts.Icons = !cached
	}
	items := m.scanner.Scan(opts)
	m.storeIcons(items)
	m.resolver.SetDividers(m.scanner.Dividers())

	res, err := m.engine.Move(ctx, items, req.ID, req.Target)
	if err != nil {
		m.refresh(false)
		return relocate.Result{}, err
	}

	if req.Target == model.PlacementFloating {
		m.settings.Pin(res.NewID, req.Bar)
	} else {
		m.settings.Unpin(req.ID)
		m.settings.Unpin(res.NewID)
	}
	m.saveSoon()
	m.refresh(false)
	return res, nil
}

// Activate opens an item's menu and blocks until it is dismissed.
func (m *Manager) Activate(ctx context.Context, id string) error {
	var actErr error
	err := m.call(ctx, func() {
		item, ok := m.findItem(id)
		if !ok {
			actErr = fmt.Errorf("%w: %q", interact.ErrItemNotFound, id)
			return
		}
		actErr = m.proxy.Activate(ctx, item)
	})
	if err != nil {
		return err
	}
	return actErr
}

// RequestRescan schedules a debounced refresh.
func (m *Manager) RequestRescan() {
	m.sched.Debounce(rescanKey, m.cfg.RescanDebounce, func() { m.refresh(false) })
}

// SetEnabled flips the managed state and persists it.
func (m *Manager) SetEnabled(ctx context.Context, enabled bool) error {
	return m.call(ctx, func() {
		m.settings.Enabled = enabled
		m.saveSoon()
		m.refresh(false)
	})
}

// SetAlwaysSectionEnabled enables or disables the always-hidden divider.
// While disabled its corridor does not exist and nothing classifies
// floating by position.
func (m *Manager) SetAlwaysSectionEnabled(ctx context.Context, enabled bool) error {
	return m.call(ctx, func() {
		m.alwaysEnabled = enabled
		m.resolver.SetAlwaysSection(enabled)
		m.refresh(false)
	})
}

// DividerFrames reports the current divider geometry.
func (m *Manager) DividerFrames(ctx context.Context) (placement.DividerFrames, error) {
	var d placement.DividerFrames
	err := m.call(ctx, func() { d = m.currentDividers() })
	return d, err
}

// Pin marks an item always-hidden (optionally on the floating bar) without
// moving it.
func (m *Manager) Pin(ctx context.Context, id string, bar bool) error {
	return m.call(ctx, func() {
		m.settings.Pin(id, bar)
		m.saveSoon()
		m.refresh(false)
	})
}

// Unpin removes an item's always-hidden pin.
func (m *Manager) Unpin(ctx context.Context, id string) error {
	return m.call(ctx, func() {
		m.settings.Unpin(id)
		m.saveSoon()
		m.refresh(false)
	})
}

// Settings returns a copy of the current settings.
func (m *Manager) Settings(ctx context.Context) (config.Settings, error) {
	var s config.Settings
	err := m.call(ctx, func() { s = m.settings })
	return s, err
}

// --- loop internals ---

func (m *Manager) schedulePeriodic() {
	m.sched.ScheduleAfter(m.cfg.RescanInterval, func() {
		m.refresh(false)
		m.schedulePeriodic()
	})
}

// currentDividers reads live divider frames into the resolver and returns
// the effective geometry, last-known fallbacks applied.
func (m *Manager) currentDividers() placement.DividerFrames {
	m.resolver.SetDividers(m.scanner.Dividers())
	return m.resolver.Effective()
}

// refresh scans, reconciles identities, prunes the departed, restores cached
// icons, and publishes the new state.
func (m *Manager) refresh(icons bool) {
	items := m.scanner.Scan(scanner.Options{Icons: icons})
	dividers := m.currentDividers()
	m.resolver.SetAlwaysHidden(m.settings.AlwaysHidden)

	m.reconcile(items)
	m.storeIcons(items)
	m.attachIcons(items)

	lanes := m.resolver.Lanes(items)
	m.mu.Lock()
	m.published = State{
		Items:     items,
		Lanes:     lanes,
		Dividers:  dividers,
		Enabled:   m.settings.Enabled,
		Revealed:  m.revealCount > 0,
		UpdatedAt: m.cfg.Clock.Now(),
	}
	m.mu.Unlock()
}

// reconcile matches tracked ids that vanished this scan to their drifted
// successors, and prunes entries whose owner is confirmed gone.
func (m *Manager) reconcile(items []model.ItemSnapshot) {
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[it.ID] = true
	}

	claimed := make(map[string]bool, len(items))
	for id := range present {
		claimed[id] = true
	}
	for id, tr := range m.tracked {
		if present[id] {
			continue
		}
		if match, ok := model.MatchDrifted(tr, items); ok && !claimed[match.ID] {
			claimed[match.ID] = true
			m.remapID(id, match.ID)
			continue
		}
		if !m.provider.Reader.AppRunning(tr.Owner) {
			m.log.Debug().Str("id", id).Str("owner", tr.Owner).Msg("pruning departed item")
			delete(m.tracked, id)
			delete(m.memIcons, id)
		}
	}

	for _, it := range items {
		m.tracked[it.ID] = model.Tracked(it)
	}
}

// remapID follows an identity change through every id-keyed structure.
func (m *Manager) remapID(oldID, newID string) {
	if oldID == newID {
		return
	}
	m.log.Debug().Str("old", oldID).Str("new", newID).Msg("identity drift")
	if icon, ok := m.memIcons[oldID]; ok {
		delete(m.memIcons, oldID)
		if _, exists := m.memIcons[newID]; !exists {
			m.memIcons[newID] = icon
		}
	}
	if tr, ok := m.tracked[oldID]; ok {
		delete(m.tracked, oldID)
		tr.ID = newID
		m.tracked[newID] = tr
	}
	m.resolver.RemapPending(oldID, newID)
	m.queue.Remap(oldID, newID)
	m.settings.RemapID(oldID, newID)
	m.saveSoon()
}

// storeIcons persists freshly captured icons to both caches.
func (m *Manager) storeIcons(items []model.ItemSnapshot) {
	dark := m.provider.UI.DarkAppearance()
	changed := false
	for _, it := range items {
		if it.Icon == nil {
			continue
		}
		m.memIcons[it.ID] = it.Icon
		m.icons.Set(iconcache.Key(it.Owner, it.Identifier, it.WindowID, it.Index, dark), it.Icon)
		changed = true
	}
	if changed {
		m.saveSoon()
	}
}

// attachIcons backfills icons for items captured in earlier scans; hidden
// items have no capturable window.
func (m *Manager) attachIcons(items []model.ItemSnapshot) {
	dark := m.provider.UI.DarkAppearance()
	for i := range items {
		if items[i].Icon != nil {
			continue
		}
		if icon, ok := m.memIcons[items[i].ID]; ok {
			items[i].Icon = icon
			continue
		}
		key := iconcache.Key(items[i].Owner, items[i].Identifier, items[i].WindowID, items[i].Index, dark)
		if icon, ok := m.icons.Get(key); ok {
			items[i].Icon = icon
			m.memIcons[items[i].ID] = icon
		}
	}
}

func (m *Manager) findItem(id string) (model.ItemSnapshot, bool) {
	items := m.scanner.Scan(scanner.Options{})
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	// The id may have drifted since the caller saw it.
	if tr, ok := m.tracked[id]; ok {
		if match, ok := model.MatchDrifted(tr, items); ok {
			return match, true
		}
	}
	return model.ItemSnapshot{}, false
}

func (m *Manager) saveSoon() {
	m.sched.Debounce(saveKey, m.cfg.SaveDelay, func() {
		if err := config.Save(m.cfg.SettingsPath, m.settings); err != nil {
			m.log.Warn().Err(err).Msg("settings save failed")
		}
		if err := m.icons.Save(); err != nil {
			m.log.Warn().Err(err).Msg("icon cache save failed")
		}
	})
}

func (m *Manager) scheduleRestore() {
	if m.revealCount > 0 {
		return
	}
	m.sched.Debounce(restoreKey, m.cfg.RestoreDelay, func() {
		m.log.Debug().Msg("restoring sections")
		m.refresh(false)
	})
}

// revealLock is the ref-counted reveal the interaction proxy holds while a
// menu is open. The hidden section stays expanded until the last holder
// releases and the restore delay elapses.
type revealLock Manager

func (l *revealLock) Acquire() {
	m := (*Manager)(l)
	m.revealCount++
	m.sched.CancelKey(restoreKey)
	if m.revealCount == 1 {
		m.log.Debug().Msg("revealing hidden section")
		m.mu.Lock()
		m.published.Revealed = true
		m.mu.Unlock()
	}
}

func (l *revealLock) Release() {
	m := (*Manager)(l)
	if m.revealCount > 0 {
		m.revealCount--
	}
	if m.revealCount == 0 {
		m.mu.Lock()
		m.published.Revealed = false
		m.mu.Unlock()
		m.scheduleRestore()
	}
}
