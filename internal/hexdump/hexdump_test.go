package hexdump

import "testing"

func TestWordPadsToByteWidth(t *testing.T) {
	cases := []struct {
		v     uint64
		bytes int
		want  string
	}{
		{0xAB, 1, "0xab"},
		{0xAB, 4, "0x000000ab"},
		{0x1122334455667788, 8, "0x1122334455667788"},
	}
	for _, c := range cases {
		if got := Word(c.v, c.bytes); got != c.want {
			t.Errorf("Word(0x%x, %d) = %q, want %q", c.v, c.bytes, got, c.want)
		}
	}
}

func TestRegistersWrapsAtWidth(t *testing.T) {
	names := []string{"x0", "x1", "x2", "x3"}
	values := []uint64{0, 1, 2, 3}
	got := Registers(names, values, 4, 2)
	want := "x0=0x00000000 x1=0x00000001 \nx2=0x00000002 x3=0x00000003 "
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDumpLayout(t *testing.T) {
	data := []byte("Hello, World!!!!") // exactly 16 bytes
	got := Dump(0x1000, 4, data)
	want := "00001000  48 65 6c 6c 6f 2c 20 57 6f 72 6c 64 21 21 21 21  |Hello, World!!!!|\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDumpPartialLastLinePads(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	got := Dump(0, 2, data)
	want := "0000  01 02 03                                         |...|\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDumpNonPrintableBecomesDot(t *testing.T) {
	data := []byte{0x00, 0x1F, 0x7F, 'A'}
	got := Dump(0, 2, data)
	want := "0000  00 1f 7f 41                                      |...A|\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
