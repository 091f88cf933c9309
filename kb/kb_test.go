package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vlarkus/blitz/model"
)

func names(store *KnowledgeBase) []string {
	var out []string
	for _, tr := range store.ListTrajectories() {
		out = append(out, tr.Name())
	}
	return out
}

func TestAddAndGetTrajectory(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())
	tr := model.NewTrajectory(store.Config(), "Skills")
	if err := store.AddTrajectory(tr); err != nil {
		t.Fatalf("AddTrajectory error: %v", err)
	}
	got, err := store.GetTrajectory("Skills")
	if err != nil || got != tr {
		t.Fatalf("GetTrajectory = %p, %v; want %p", got, err, tr)
	}
	if _, err := store.GetTrajectory("missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetTrajectory(missing) err = %v, want ErrNotFound", err)
	}
}

func TestAddTrajectoryRejects(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())
	tr := model.NewTrajectory(store.Config(), "A")
	if err := store.AddTrajectory(tr); err != nil {
		t.Fatalf("first AddTrajectory error: %v", err)
	}

	tests := []struct {
		name string
		tr   *model.Trajectory
		want error
	}{
		{"nil", nil, model.ErrNullArgument},
		{"same instance", tr, model.ErrAlreadyMember},
		{"same name", model.NewTrajectory(store.Config(), "A"), ErrDuplicateName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := store.AddTrajectory(tc.tr); !errors.Is(err, tc.want) {
				t.Fatalf("AddTrajectory err = %v, want %v", err, tc.want)
			}
		})
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d after rejected adds, want 1", store.Len())
	}
}

func TestNextAvailableName(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())
	if got := store.NextAvailableName(); got != "Trajectory 1" {
		t.Fatalf("NextAvailableName = %q, want Trajectory 1", got)
	}

	first := store.NewTrajectory()
	store.NewTrajectory()
	store.NewTrajectory()
	if diff := cmp.Diff([]string{"Trajectory 1", "Trajectory 2", "Trajectory 3"}, names(store)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if err := store.RemoveTrajectory(first); err != nil {
		t.Fatalf("RemoveTrajectory error: %v", err)
	}
	if got := store.NextAvailableName(); got != "Trajectory 1" {
		t.Fatalf("NextAvailableName after removal = %q, want Trajectory 1", got)
	}
}

func TestMoveUpDown(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())
	a := store.NewTrajectory()
	b := store.NewTrajectory()
	c := store.NewTrajectory()

	if store.MoveUp(a) {
		t.Fatal("MoveUp(first) = true, want false")
	}
	if store.MoveDown(c) {
		t.Fatal("MoveDown(last) = true, want false")
	}
	if !store.MoveUp(c) {
		t.Fatal("MoveUp(c) = false")
	}
	if !store.MoveDown(a) {
		t.Fatal("MoveDown(a) = false")
	}
	want := []string{b.Name(), a.Name(), c.Name()}
	if diff := cmp.Diff(want, names(store)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	stranger := model.NewTrajectory(model.DefaultConfig(), "stranger")
	if store.MoveUp(stranger) || store.MoveDown(stranger) {
		t.Fatal("moving an unknown trajectory succeeded")
	}
	if store.MoveUp(nil) {
		t.Fatal("MoveUp(nil) = true")
	}
}

func TestTrajectoryByControlPoint(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())
	a := store.NewTrajectory()
	b := store.NewTrajectory()
	cp := b.NewControlPoint("p", 1, 2)
	if err := b.Add(cp); err != nil {
		t.Fatal(err)
	}
	if err := a.Add(a.NewControlPoint("q", 0, 0)); err != nil {
		t.Fatal(err)
	}

	got, err := store.TrajectoryByControlPoint(cp)
	if err != nil || got != b {
		t.Fatalf("TrajectoryByControlPoint = %v, %v; want %q", got, err, b.Name())
	}
	orphan := model.NewControlPoint(model.DefaultConfig(), "orphan", 0, 0)
	if _, err := store.TrajectoryByControlPoint(orphan); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("orphan err = %v, want ErrNotFound", err)
	}
	if _, err := store.TrajectoryByControlPoint(nil); !errors.Is(err, model.ErrNullArgument) {
		t.Fatalf("nil err = %v, want ErrNullArgument", err)
	}
}

func TestActiveSelection(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())
	a := store.NewTrajectory()

	var got []Event
	unsubscribe := store.Subscribe(func(e Event) { got = append(got, e) })
	defer unsubscribe()

	if err := store.SetActive(a); err != nil {
		t.Fatalf("SetActive error: %v", err)
	}
	if store.Active() != a {
		t.Fatalf("Active = %v, want a", store.Active())
	}
	// Re-selecting is a no-op.
	if err := store.SetActive(a); err != nil {
		t.Fatal(err)
	}
	stranger := model.NewTrajectory(model.DefaultConfig(), "stranger")
	if err := store.SetActive(stranger); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SetActive(stranger) err = %v, want ErrNotFound", err)
	}
	if err := store.RemoveTrajectory(a); err != nil {
		t.Fatal(err)
	}
	if store.Active() != nil {
		t.Fatal("removing the active trajectory kept the selection")
	}

	var types []EventType
	for _, e := range got {
		types = append(types, e.Type)
	}
	want := []EventType{EventActiveChanged, EventTrajectoryRemoved, EventActiveChanged}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())

	var first, second []EventType
	unsubFirst := store.Subscribe(func(e Event) { first = append(first, e.Type) })
	store.Subscribe(func(e Event) { second = append(second, e.Type) })

	tr := store.NewTrajectory()
	if err := store.Touch(tr); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	unsubFirst()
	unsubFirst()
	store.Clear()

	if diff := cmp.Diff([]EventType{EventTrajectoryAdded, EventTrajectoryUpdated}, first); diff != "" {
		t.Fatalf("first subscriber (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]EventType{EventTrajectoryAdded, EventTrajectoryUpdated, EventCleared}, second); diff != "" {
		t.Fatalf("second subscriber (-want +got):\n%s", diff)
	}
	if err := store.Touch(tr); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Touch after Clear err = %v, want ErrNotFound", err)
	}
}

func TestSubscriberMayCallBack(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())
	var seen int
	store.Subscribe(func(Event) {
		// Callbacks run outside the lock, so reading is safe.
		seen = store.Len()
	})
	store.NewTrajectory()
	if seen != 1 {
		t.Fatalf("Len seen from callback = %d, want 1", seen)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewKnowledgeBase(model.DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.ListTrajectories()
			_ = store.NextAvailableName()
		}()
		go func() {
			defer wg.Done()
			tr := model.NewTrajectory(model.DefaultConfig(), fmt.Sprintf("t-%d", i))
			_ = store.AddTrajectory(tr)
			_ = store.Touch(tr)
		}()
	}
	wg.Wait()
	if store.Len() != 10 {
		t.Fatalf("Len = %d, want 10", store.Len())
	}
}
