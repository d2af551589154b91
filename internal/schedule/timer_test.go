package schedule

import (
	"testing"
	"time"
)

func TestAfter_FiresOnce(t *testing.T) {
	timer := New("test")

	cmd := timer.After(0)
	if !timer.Pending() {
		t.Fatal("timer should be pending after After")
	}

	msg := cmd()
	if !timer.Fire(msg) {
		t.Fatal("Fire() should accept the current tick")
	}
	if timer.Pending() {
		t.Error("timer should not be pending after firing")
	}
	if timer.Fire(msg) {
		t.Error("Fire() should not accept the same tick twice")
	}
}

func TestAfter_SupersedesPreviousTick(t *testing.T) {
	timer := New("test")

	first := timer.After(0)()
	second := timer.After(0)()

	if timer.Fire(first) {
		t.Error("superseded tick should be rejected")
	}
	if !timer.Fire(second) {
		t.Error("latest tick should be accepted")
	}
}

func TestCancel(t *testing.T) {
	timer := New("test")

	msg := timer.After(0)()
	timer.Cancel()

	if timer.Pending() {
		t.Error("cancelled timer should not be pending")
	}
	if timer.Fire(msg) {
		t.Error("cancelled tick should be rejected")
	}
	if !timer.Owns(msg) {
		t.Error("stale tick should still be owned by its timer")
	}
}

func TestFire_OtherTimersTickRejected(t *testing.T) {
	a := New("a")
	b := New("b")

	msg := a.After(0)()
	b.After(0)

	if b.Fire(msg) {
		t.Error("timer b should reject a tick issued by timer a")
	}
	if b.Owns(msg) {
		t.Error("timer b should not own a tick issued by timer a")
	}
	if a.ID() == b.ID() {
		t.Error("timers should have distinct IDs")
	}
}

func TestAfter_Delay(t *testing.T) {
	timer := New("delay")

	start := time.Now()
	msg := timer.After(20 * time.Millisecond)()

	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("tick fired after %v, want about 20ms", elapsed)
	}
	if !timer.Fire(msg) {
		t.Error("delayed tick should be accepted")
	}
}

func TestFire_IgnoresOtherMessages(t *testing.T) {
	timer := New("test")
	timer.After(0)

	if timer.Fire("not a tick") {
		t.Error("Fire() should ignore non-tick messages")
	}
	if !timer.Pending() {
		t.Error("ignoring a foreign message should not consume the tick")
	}
}
