package kb

import (
	"fmt"
	"sync"

	"github.com/vlarkus/blitz/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventTrajectoryAdded EventType = iota
	EventTrajectoryRemoved
	EventTrajectoryMoved
	EventTrajectoryUpdated
	EventActiveChanged
	EventCleared
)

func (e EventType) String() string {
	switch e {
	case EventTrajectoryAdded:
		return "added"
	case EventTrajectoryRemoved:
		return "removed"
	case EventTrajectoryMoved:
		return "moved"
	case EventTrajectoryUpdated:
		return "updated"
	case EventActiveChanged:
		return "active"
	case EventCleared:
		return "cleared"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// Event is emitted to subscribers when something interesting happens.
// Trajectory is nil for EventCleared and for EventActiveChanged when the
// selection was cleared.
type Event struct {
	Type       EventType
	Trajectory *model.Trajectory
	Index      int
}

// KnowledgeBase is the document an editor session works on: an ordered,
// thread-safe list of trajectories plus the active selection.
type KnowledgeBase struct {
	mu sync.RWMutex

	cfg          model.Config
	trajectories []*model.Trajectory
	active       *model.Trajectory

	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty KB. cfg is normalised with
// ApplyDefaults and used for trajectories created through NewTrajectory.
func NewKnowledgeBase(cfg model.Config) *KnowledgeBase {
	return &KnowledgeBase{
		cfg:  cfg.ApplyDefaults(),
		subs: make(map[int]func(Event)),
	}
}

// Config returns the configuration trajectories are created with.
func (kb *KnowledgeBase) Config() model.Config {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.cfg
}

// NewTrajectory creates an empty trajectory with the next available name,
// appends it and returns it.
func (kb *KnowledgeBase) NewTrajectory() *model.Trajectory {
	kb.mu.Lock()
	tr := model.NewTrajectory(kb.cfg, kb.nextAvailableNameLocked())
	kb.trajectories = append(kb.trajectories, tr)
	ev := Event{Type: EventTrajectoryAdded, Trajectory: tr, Index: len(kb.trajectories) - 1}
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	notify(subs, ev)
	return tr
}

// AddTrajectory appends tr. It fails if tr is nil, already present, or
// shares its name with another trajectory.
func (kb *KnowledgeBase) AddTrajectory(tr *model.Trajectory) error {
	if tr == nil {
		return fmt.Errorf("add trajectory: %w", model.ErrNullArgument)
	}

	kb.mu.Lock()
	if kb.indexLocked(tr) >= 0 {
		kb.mu.Unlock()
		return fmt.Errorf("add trajectory %q: %w", tr.Name(), model.ErrAlreadyMember)
	}
	if _, ok := kb.byNameLocked(tr.Name()); ok {
		kb.mu.Unlock()
		return fmt.Errorf("add trajectory %q: %w", tr.Name(), ErrDuplicateName)
	}
	kb.trajectories = append(kb.trajectories, tr)
	ev := Event{Type: EventTrajectoryAdded, Trajectory: tr, Index: len(kb.trajectories) - 1}
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	notify(subs, ev)
	return nil
}

// RemoveTrajectory removes tr. If tr was active the selection is cleared
// and an EventActiveChanged follows the removal event.
func (kb *KnowledgeBase) RemoveTrajectory(tr *model.Trajectory) error {
	if tr == nil {
		return fmt.Errorf("remove trajectory: %w", model.ErrNullArgument)
	}

	kb.mu.Lock()
	i := kb.indexLocked(tr)
	if i < 0 {
		kb.mu.Unlock()
		return fmt.Errorf("remove trajectory %q: %w", tr.Name(), model.ErrNotFound)
	}
	kb.trajectories = append(kb.trajectories[:i], kb.trajectories[i+1:]...)
	events := []Event{{Type: EventTrajectoryRemoved, Trajectory: tr, Index: i}}
	if kb.active == tr {
		kb.active = nil
		events = append(events, Event{Type: EventActiveChanged, Index: -1})
	}
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	notify(subs, events...)
	return nil
}

// Clear removes every trajectory and the active selection.
func (kb *KnowledgeBase) Clear() {
	kb.mu.Lock()
	kb.trajectories = nil
	kb.active = nil
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventCleared, Index: -1})
}

// MoveUp swaps tr with its predecessor. It returns false if tr is already
// first or not present.
func (kb *KnowledgeBase) MoveUp(tr *model.Trajectory) bool {
	return kb.move(tr, -1)
}

// MoveDown swaps tr with its successor. It returns false if tr is already
// last or not present.
func (kb *KnowledgeBase) MoveDown(tr *model.Trajectory) bool {
	return kb.move(tr, +1)
}

func (kb *KnowledgeBase) move(tr *model.Trajectory, delta int) bool {
	kb.mu.Lock()
	i := kb.indexLocked(tr)
	j := i + delta
	if i < 0 || j < 0 || j >= len(kb.trajectories) {
		kb.mu.Unlock()
		return false
	}
	kb.trajectories[i], kb.trajectories[j] = kb.trajectories[j], kb.trajectories[i]
	ev := Event{Type: EventTrajectoryMoved, Trajectory: tr, Index: j}
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	notify(subs, ev)
	return true
}

// Len returns the number of trajectories.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.trajectories)
}

// ListTrajectories returns a snapshot of the trajectories in order.
func (kb *KnowledgeBase) ListTrajectories() []*model.Trajectory {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*model.Trajectory, len(kb.trajectories))
	copy(res, kb.trajectories)
	return res
}

// GetTrajectory returns the trajectory named name.
func (kb *KnowledgeBase) GetTrajectory(name string) (*model.Trajectory, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if tr, ok := kb.byNameLocked(name); ok {
		return tr, nil
	}
	return nil, fmt.Errorf("trajectory %q: %w", name, model.ErrNotFound)
}

// TrajectoryByControlPoint returns the trajectory that owns cp.
func (kb *KnowledgeBase) TrajectoryByControlPoint(cp *model.ControlPoint) (*model.Trajectory, error) {
	if cp == nil {
		return nil, fmt.Errorf("trajectory by control point: %w", model.ErrNullArgument)
	}
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	for _, tr := range kb.trajectories {
		if tr.Contains(cp) {
			return tr, nil
		}
	}
	return nil, fmt.Errorf("trajectory owning %q: %w", cp.Name(), model.ErrNotFound)
}

// NextAvailableName returns the first "Trajectory N", N >= 1, not in use.
func (kb *KnowledgeBase) NextAvailableName() string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.nextAvailableNameLocked()
}

// Active returns the selected trajectory, or nil.
func (kb *KnowledgeBase) Active() *model.Trajectory {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.active
}

// SetActive selects tr. A nil tr clears the selection. Selecting a
// trajectory that is not in the KB fails with ErrNotFound.
func (kb *KnowledgeBase) SetActive(tr *model.Trajectory) error {
	kb.mu.Lock()
	idx := -1
	if tr != nil {
		idx = kb.indexLocked(tr)
		if idx < 0 {
			kb.mu.Unlock()
			return fmt.Errorf("select trajectory %q: %w", tr.Name(), model.ErrNotFound)
		}
	}
	if kb.active == tr {
		kb.mu.Unlock()
		return nil
	}
	kb.active = tr
	ev := Event{Type: EventActiveChanged, Trajectory: tr, Index: idx}
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	notify(subs, ev)
	return nil
}

// Touch reports that tr was edited in place so subscribers can recompute.
func (kb *KnowledgeBase) Touch(tr *model.Trajectory) error {
	if tr == nil {
		return fmt.Errorf("touch trajectory: %w", model.ErrNullArgument)
	}
	kb.mu.RLock()
	i := kb.indexLocked(tr)
	subs := kb.snapshotSubsLocked()
	kb.mu.RUnlock()

	if i < 0 {
		return fmt.Errorf("touch trajectory %q: %w", tr.Name(), model.ErrNotFound)
	}
	notify(subs, Event{Type: EventTrajectoryUpdated, Trajectory: tr, Index: i})
	return nil
}

// Subscribe registers a callback for KB events. It returns an unsubscribe
// function that is safe to call more than once.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextID
	kb.nextID++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

func (kb *KnowledgeBase) indexLocked(tr *model.Trajectory) int {
	for i, t := range kb.trajectories {
		if t == tr {
			return i
		}
	}
	return -1
}

func (kb *KnowledgeBase) byNameLocked(name string) (*model.Trajectory, bool) {
	for _, t := range kb.trajectories {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func (kb *KnowledgeBase) nextAvailableNameLocked() string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("Trajectory %d", n)
		if _, taken := kb.byNameLocked(name); !taken {
			return name
		}
	}
}

// snapshotSubsLocked copies subscribers in registration order so callbacks
// run outside the lock.
func (kb *KnowledgeBase) snapshotSubsLocked() []func(Event) {
	subs := make([]func(Event), 0, len(kb.subs))
	for id := 0; id < kb.nextID; id++ {
		if fn, ok := kb.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func notify(subs []func(Event), events ...Event) {
	for _, ev := range events {
		for _, sub := range subs {
			sub(ev)
		}
	}
}
