package options

import "testing"

func TestDefaultsAppliedWithNoOptions(t *testing.T) {
	o := New()
	if o.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", o.DataDir, DefaultDataDir)
	}
	if o.BufferPoolSlots != DefaultBufferPoolSlots {
		t.Errorf("BufferPoolSlots = %d, want %d", o.BufferPoolSlots, DefaultBufferPoolSlots)
	}
}

func TestWithDataDirIgnoresBlank(t *testing.T) {
	o := New(WithDataDir("   "))
	if o.DataDir != DefaultDataDir {
		t.Errorf("blank DataDir should be a no-op, got %q", o.DataDir)
	}
	o = New(WithDataDir("/tmp/custom"))
	if o.DataDir != "/tmp/custom" {
		t.Errorf("DataDir = %q, want /tmp/custom", o.DataDir)
	}
}

func TestWithBufferPoolSlotsRejectsOutOfRange(t *testing.T) {
	o := New(WithBufferPoolSlots(1))
	if o.BufferPoolSlots != DefaultBufferPoolSlots {
		t.Errorf("out-of-range slots should be a no-op, got %d", o.BufferPoolSlots)
	}
	o = New(WithBufferPoolSlots(2048))
	if o.BufferPoolSlots != 2048 {
		t.Errorf("BufferPoolSlots = %d, want 2048", o.BufferPoolSlots)
	}
}

func TestWithLRUKPartitionsRejectsInvalidSplit(t *testing.T) {
	o := New(WithLRUKPartitions(0.7, 0.5)) // sums to > 1
	if o.HotFraction != DefaultHotFraction || o.ColdFraction != DefaultColdFraction {
		t.Errorf("invalid split should be a no-op, got hot=%v cold=%v", o.HotFraction, o.ColdFraction)
	}
	o = New(WithLRUKPartitions(0.6, 0.3))
	if o.HotFraction != 0.6 || o.ColdFraction != 0.3 {
		t.Errorf("HotFraction/ColdFraction = %v/%v, want 0.6/0.3", o.HotFraction, o.ColdFraction)
	}
}
