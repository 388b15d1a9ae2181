package source

import "testing"

func TestLineColMapping(t *testing.T) {
	db := NewDatabase()
	file := db.AddFile("test.ram", "LOAD =5\nADD 3\nHALT\n")
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 0},  // 'L' of LOAD
		{5, 1, 5},  // '=' on line 1
		{8, 2, 0},  // 'A' of ADD
		{12, 2, 4}, // '3'
		{14, 3, 0}, // 'H' of HALT
	}
	for _, tt := range tests {
		line, col := db.LineCol(file, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("LineCol(%d): got %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func TestLineTextDropsTerminator(t *testing.T) {
	db := NewDatabase()
	file := db.AddFile("test.ram", "LOAD =5\r\nHALT\n")
	got, ok := db.LineText(file, 1)
	if !ok || got != "LOAD =5" {
		t.Fatalf("got %v %q, want true \"LOAD =5\"", ok, got)
	}
	got, ok = db.LineText(file, 2)
	if !ok || got != "HALT" {
		t.Fatalf("got %v %q, want true \"HALT\"", ok, got)
	}
}

func TestSpanText(t *testing.T) {
	db := NewDatabase()
	file := db.AddFile("test.ram", "LOAD =5\n")
	got := db.SpanText(Span{File: file, Start: 5, End: 7})
	if got != "=5" {
		t.Errorf("got %q, want %q", got, "=5")
	}
}

func TestSetTextBumpsRevisionAndInvalidatesMemo(t *testing.T) {
	db := NewDatabase()
	file := db.AddFile("test.ram", "HALT\n")

	calls := 0
	compute := func() any {
		calls++
		return calls
	}

	if v := db.Memoize(file, "test", compute); v != 1 {
		t.Fatalf("got %v, want 1", v)
	}
	if v := db.Memoize(file, "test", compute); v != 1 {
		t.Fatalf("expected a cache hit, got %v", v)
	}

	rev := db.Revision(file)
	db.SetText(file, "LOAD =1\nHALT\n")
	if db.Revision(file) != rev+1 {
		t.Fatalf("got revision %d, want %d", db.Revision(file), rev+1)
	}
	if v := db.Memoize(file, "test", compute); v != 2 {
		t.Fatalf("expected recomputation after SetText, got %v", v)
	}
}

func TestMemoizeKeysAreDistinctPerKind(t *testing.T) {
	db := NewDatabase()
	file := db.AddFile("test.ram", "HALT\n")
	a := db.Memoize(file, "lex", func() any { return "a" })
	b := db.Memoize(file, "parse", func() any { return "b" })
	if a == b {
		t.Fatal("distinct kinds must not share a cache slot")
	}
}
