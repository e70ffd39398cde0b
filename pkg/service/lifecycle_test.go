package service

import "testing"

func TestLifecycleOverall(t *testing.T) {
	cases := []struct {
		states map[string]State
		want   State
	}{
		{map[string]State{"a": Healthy, "b": Healthy}, Healthy},
		{map[string]State{"a": Healthy, "b": Starting}, Starting},
		{map[string]State{"a": Unhealthy, "b": Starting}, Unhealthy},
		{map[string]State{"a": Stopped, "b": Stopped}, Stopped},
	}
	for _, c := range cases {
		names := make([]string, 0, len(c.states))
		for n := range c.states {
			names = append(names, n)
		}
		l := NewLifecycle(names)
		for n, s := range c.states {
			l.Set(n, s)
		}
		if got := l.Overall(); got != c.want {
			t.Errorf("Overall() for %v = %v, want %v", c.states, got, c.want)
		}
	}
}

func TestLifecycleAllHealthy(t *testing.T) {
	l := NewLifecycle([]string{"a", "b"})
	if l.AllHealthy() {
		t.Error("freshly registered services should not be healthy")
	}
	l.Set("a", Healthy)
	if l.AllHealthy() {
		t.Error("should not be all-healthy with one service still registered")
	}
	l.Set("b", Healthy)
	if !l.AllHealthy() {
		t.Error("expected all-healthy once every service is healthy")
	}
}

func TestLifecycleSetUnregisteredPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Set on an unregistered service to panic")
		}
	}()
	l := NewLifecycle([]string{"a"})
	l.Set("ghost", Healthy)
}
