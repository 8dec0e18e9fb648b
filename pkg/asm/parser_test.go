package asm

import "testing"

func TestParseImmediateBases(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{"-42", -42},
		{"0x2A", 42},
		{"0X2a", 42},
		{"052", 42}, // octal
		{"0b101010", 42},
		{"0", 0},
		{"-0x10", -16},
	}
	for _, c := range cases {
		got, err := parseImmediate(c.in)
		if err != nil {
			t.Errorf("parseImmediate(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseImmediate(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseImmediateRejectsMalformed(t *testing.T) {
	for _, in := range []string{"0xZZ", "12a", "0b2"} {
		if _, err := parseImmediate(in); err == nil {
			t.Errorf("parseImmediate(%q): expected error", in)
		}
	}
}

func TestParseCharLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{`'a'`, 'a'},
		{`'\n'`, '\n'},
		{`'\0'`, 0},
		{`'\x41'`, 'A'},
	}
	for _, c := range cases {
		got, err := parseCharLiteral(c.in)
		if err != nil {
			t.Errorf("parseCharLiteral(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseCharLiteral(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseCharLiteralRejectsMultiChar(t *testing.T) {
	for _, in := range []string{"'ab'", "''", "'"} {
		if _, err := parseCharLiteral(in); err == nil {
			t.Errorf("parseCharLiteral(%q): expected error", in)
		}
	}
}

func TestSplitLabelGlobal(t *testing.T) {
	label, kind, rest, ok := splitLabel("loop: addi x1, x1, -1")
	if !ok || label != "loop" || kind != labelGlobal {
		t.Fatalf("got (%q, %v, %v)", label, kind, ok)
	}
	if rest != " addi x1, x1, -1" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestSplitLabelLocalNumeric(t *testing.T) {
	label, kind, _, ok := splitLabel("1: j 1b")
	if !ok || label != "1" || kind != labelLocal {
		t.Fatalf("got (%q, %v, %v)", label, kind, ok)
	}
}

func TestSplitLabelRejectsOutOfRangeNumeric(t *testing.T) {
	if _, _, _, ok := splitLabel("0: nop"); ok {
		t.Fatal("label \"0\" should not parse as a local label")
	}
	if _, _, _, ok := splitLabel("100: nop"); ok {
		t.Fatal("label \"100\" should not parse as a local label")
	}
}

func TestSplitLabelNoColonMeansNoLabel(t *testing.T) {
	if _, _, rest, ok := splitLabel("addi x1, x0, 1"); ok || rest != "addi x1, x0, 1" {
		t.Fatalf("expected no label, got rest=%q ok=%v", rest, ok)
	}
}

func TestIsValidLabelName(t *testing.T) {
	for _, s := range []string{"loop", "_start", "foo.bar", "a1"} {
		if !isValidLabelName(s) {
			t.Errorf("isValidLabelName(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"1abc", "foo-bar", "foo bar"} {
		if isValidLabelName(s) {
			t.Errorf("isValidLabelName(%q) = true, want false", s)
		}
	}
}

func TestIsNumericOperand(t *testing.T) {
	for _, s := range []string{"42", "-1", "'a'", "0x10"} {
		if !isNumericOperand(s) {
			t.Errorf("isNumericOperand(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"x1", "loop", "1f"} {
		if isNumericOperand(s) {
			t.Errorf("isNumericOperand(%q) = true, want false", s)
		}
	}
}

func TestParseLineInstructionWithLabel(t *testing.T) {
	ln := parseLine(rawLine{Lineno: 7, Text: "loop: addi x1, x1, -1"})
	if ln.Label != "loop" || ln.LabelKind != labelGlobal {
		t.Fatalf("label mismatch: %+v", ln)
	}
	if ln.Mnemonic != "addi" {
		t.Fatalf("mnemonic = %q, want addi", ln.Mnemonic)
	}
	want := []string{"x1", "x1", "-1"}
	if len(ln.Operands) != len(want) {
		t.Fatalf("operands = %v, want %v", ln.Operands, want)
	}
	for i := range want {
		if ln.Operands[i] != want[i] {
			t.Errorf("operand %d = %q, want %q", i, ln.Operands[i], want[i])
		}
	}
}

func TestParseLineDirective(t *testing.T) {
	ln := parseLine(rawLine{Lineno: 1, Text: ".word 1, 2, 3"})
	if ln.Directive != ".word" {
		t.Fatalf("directive = %q, want .word", ln.Directive)
	}
	if len(ln.Operands) != 3 {
		t.Fatalf("operands = %v", ln.Operands)
	}
}

func TestParseLineLabelOnly(t *testing.T) {
	ln := parseLine(rawLine{Lineno: 3, Text: "done:"})
	if ln.Label != "done" || ln.Mnemonic != "" || ln.Directive != "" {
		t.Fatalf("unexpected line: %+v", ln)
	}
}
