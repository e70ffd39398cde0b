package clock

import (
	"testing"
	"time"
)

func TestFreeze(t *testing.T) {
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := Freeze(frozen)
	defer restore()

	if !Now().Equal(frozen) {
		t.Errorf("Now() = %v, want %v", Now(), frozen)
	}
}

func TestRestore(t *testing.T) {
	orig := Now
	restore := Freeze(time.Unix(0, 0))
	restore()
	if Now().Equal(time.Unix(0, 0)) {
		t.Errorf("expected Now to be restored after restore()")
	}
	_ = orig
}
