package cpu

import "testing"

func TestConstRegisterDiscardsWrites(t *testing.T) {
	r := NewRegister[uint32](0, true)
	r.Write(42)
	if r.Read() != 0 {
		t.Fatalf("const register accepted a write: got %d", r.Read())
	}
}

func TestMutableRegisterWrites(t *testing.T) {
	r := NewRegister[uint32](0, false)
	r.Write(42)
	if r.Read() != 42 {
		t.Fatalf("got %d, want 42", r.Read())
	}
}

func TestCounterCountsByStride(t *testing.T) {
	c := NewCounter[uint32](4)
	c.Set(0x800)
	c.Count()
	if c.Read() != 0x804 {
		t.Fatalf("got 0x%x, want 0x804", c.Read())
	}
}

func TestRegisterFileX0HardwiredZero(t *testing.T) {
	// spec.md §8 invariant 1.
	rf := NewRegisterFile[uint32](32)
	rf.Write(0, 0xDEADBEEF)
	if rf.Read(0) != 0 {
		t.Fatalf("x0 != 0 after write: got 0x%x", rf.Read(0))
	}
}

func TestRegisterFileIndexMaskingForEVariant(t *testing.T) {
	rf := NewRegisterFile[uint32](16)
	// index 17 masked to 17 & 0x0F == 1
	rf.Write(17, 7)
	if rf.Read(1) != 7 {
		t.Fatalf("expected masked write to land on x1, got %d", rf.Read(1))
	}
}

func TestRegisterFileResetZeroesAll(t *testing.T) {
	rf := NewRegisterFile[uint32](32)
	rf.Write(5, 99)
	rf.Reset()
	if rf.Read(5) != 0 {
		t.Fatalf("register 5 not cleared by Reset: got %d", rf.Read(5))
	}
}
