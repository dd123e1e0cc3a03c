package notify

import (
	"sync"
	"testing"
)

func TestSubscribeReceivesAllChanges(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	n.Subscribe(func(c Change) {
		got = append(got, c)
	})

	n.Notify(Change{Path: "packageManager", Type: ChangeRepaired})
	n.Notify(Change{Path: "features", Type: ChangeDropped})

	if len(got) != 2 {
		t.Fatalf("got %d changes, want 2", len(got))
	}
	if got[0].Type != ChangeRepaired || got[1].Type != ChangeDropped {
		t.Errorf("changes = %v", got)
	}
}

func TestSubscribePathMatching(t *testing.T) {
	n := New()
	defer n.Close()

	var exact, parent, other int
	n.SubscribePath("formatting.indentSize", func(Change) { exact++ })
	n.SubscribePath("formatting", func(Change) { parent++ })
	n.SubscribePath("paths", func(Change) { other++ })

	n.Notify(Change{Path: "formatting.indentSize", Type: ChangeRepaired})

	if exact != 1 {
		t.Errorf("exact = %d, want 1", exact)
	}
	if parent != 1 {
		t.Errorf("parent = %d, want 1", parent)
	}
	if other != 0 {
		t.Errorf("other = %d, want 0", other)
	}
}

func TestWholeDocumentEventReachesPathObservers(t *testing.T) {
	n := New()
	defer n.Close()

	var calls int
	n.SubscribePath("formatting", func(c Change) {
		if c.Type != ChangeReloaded {
			t.Errorf("type = %v", c.Type)
		}
		calls++
	})

	n.NotifyReloaded("watcher")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var calls int
	sub := n.Subscribe(func(Change) { calls++ })
	if sub.ID() == "" {
		t.Error("empty subscription id")
	}

	n.Notify(Change{Path: "a", Type: ChangeFilled})
	sub.Unsubscribe()
	n.Notify(Change{Path: "a", Type: ChangeFilled})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAsyncDelivery(t *testing.T) {
	n := New(WithAsync(16))

	var mu sync.Mutex
	var got []Change
	n.Subscribe(func(c Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		n.Notify(Change{Path: "features", Type: ChangeDropped})
	}

	// Close drains the buffer before returning
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Errorf("got %d changes, want 5", len(got))
	}
}

func TestNotifyAfterCloseIsNoop(t *testing.T) {
	n := New()

	var calls int
	n.Subscribe(func(Change) { calls++ })

	n.Close()
	n.Notify(Change{Path: "a", Type: ChangeFilled})
	n.Close() // idempotent

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestChangeTypeString(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeRepaired, "repaired"},
		{ChangeFilled, "filled"},
		{ChangeDropped, "dropped"},
		{ChangeRestored, "restored"},
		{ChangeReloaded, "reloaded"},
		{ChangeImported, "imported"},
		{ChangeType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("ChangeType(%d).String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}
