package selector

import "testing"

func TestPatternEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "WFC", "WFC", true},
		{"case and space", " wfc ", "WFC", true},
		{"inner whitespace", "F 1", "f  1", true},
		{"alternative order", "F1|F2", "F2|F1", true},
		{"duplicate alternatives", "F1|F1|F2", "F2|F1", true},
		{"different values", "WFC", "HRC", false},
		{"subset alternatives", "F1", "F1|F2", false},
		{"star subsumes value", "*", "WFC", true},
		{"value subsumed by star", "WFC", "*", true},
		{"prefix glob subsumes enumeration", "F*", "F1|F2", true},
		{"prefix glob misses value", "F*", "F1|CLEAR", false},
		{"na is dont care", "N/A", "*", true},
		{"na subsumes value", "N/A", "WFC", true},
		{"two globs differ", "F*", "G*", false},
		{"empty equals empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PatternEquivalent(tt.a, tt.b); got != tt.want {
				t.Errorf("PatternEquivalent(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := PatternEquivalent(tt.b, tt.a); got != tt.want {
				t.Errorf("PatternEquivalent(%q, %q) = %v, want %v (not symmetric)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestEquivalent_NameOrderSignificant(t *testing.T) {
	a := MustParseTuple("DETECTOR=WFC,FILTER=F1")
	b := MustParseTuple("FILTER=F1,DETECTOR=WFC")
	if Equivalent(a, b) {
		t.Errorf("tuples with different parameter order should not be equivalent")
	}
}

func TestEquivalent_LengthMismatch(t *testing.T) {
	a := MustParseTuple("DETECTOR=WFC,FILTER=F1")
	b := MustParseTuple("DETECTOR=WFC")
	if Equivalent(a, b) {
		t.Errorf("tuples of different length should not be equivalent")
	}
}

func TestEquivalent_NameCaseInsensitive(t *testing.T) {
	a := MustParseTuple("detector=wfc,filter=f1")
	b := MustParseTuple("DETECTOR=WFC,FILTER=F1")
	if !Equivalent(a, b) {
		t.Errorf("expected %s equivalent to %s", a, b)
	}
}

func TestParseTuple_Errors(t *testing.T) {
	for _, in := range []string{"DETECTOR", "=WFC", "A=B,C"} {
		if _, err := ParseTuple(in); err == nil {
			t.Errorf("ParseTuple(%q): expected error", in)
		}
	}
}

func TestParseTuple_Empty(t *testing.T) {
	tup, err := ParseTuple("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tup) != 0 {
		t.Errorf("expected empty tuple, got %s", tup)
	}
}

func TestNewTuple_LengthMismatch(t *testing.T) {
	if _, err := NewTuple([]string{"A", "B"}, []string{"1"}); err == nil {
		t.Fatal("expected error for mismatched names and patterns")
	}
}

func TestTupleString(t *testing.T) {
	got := MustParseTuple("DETECTOR=WFC,FILTER=F1|F2").String()
	want := "(DETECTOR='WFC', FILTER='F1|F2')"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSetOf_DropsDuplicates(t *testing.T) {
	s := SetOf(
		MustParseTuple("DETECTOR=WFC,FILTER=F1|F2"),
		MustParseTuple("DETECTOR=wfc,FILTER=F2|F1"),
		MustParseTuple("DETECTOR=HRC,FILTER=F1"),
	)
	if len(s) != 2 {
		t.Fatalf("expected 2 members, got %d: %s", len(s), s)
	}
	if !s.Contains(MustParseTuple("DETECTOR=HRC,FILTER=f1")) {
		t.Errorf("expected set to contain HRC/F1")
	}
}

func TestSetOf_WildcardKeepsLiterals(t *testing.T) {
	s := SetOf(
		MustParseTuple("DETECTOR=*"),
		MustParseTuple("DETECTOR=WFC"),
		MustParseTuple("DETECTOR=N/A"),
	)
	if len(s) != 2 {
		t.Fatalf("expected 2 members, got %d: %s", len(s), s)
	}
	if !s.Contains(MustParseTuple("DETECTOR=wfc")) {
		t.Errorf("WFC should survive alongside *: %s", s)
	}
	if s.Contains(MustParseTuple("DETECTOR=HRC")) {
		t.Errorf("HRC is not a member even though * matches it: %s", s)
	}
}

func TestSame(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"DETECTOR=WFC|HRC", "detector=hrc|wfc", true},
		{"DETECTOR=N/A", "DETECTOR=*", true},
		{"DETECTOR=*", "DETECTOR=WFC", false},
		{"DETECTOR=WFC", "FILTER=WFC", false},
		{"DETECTOR=WFC", "DETECTOR=WFC,FILTER=F1", false},
	}
	for _, tt := range tests {
		if got := Same(MustParseTuple(tt.a), MustParseTuple(tt.b)); got != tt.want {
			t.Errorf("Same(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
