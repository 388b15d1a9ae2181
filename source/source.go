// Package source implements the source database: a map from an opaque file
// identifier to its text, stable line/column mappings, and a
// per-revision memoization layer that the lexer, parser, lowering and
// analysis passes key their caches against so that re-running the pipeline
// on unchanged input is cheap.
package source

import "sort"

// FileID identifies a source file within a Database. The zero value is never
// a valid ID returned by AddFile.
type FileID int

// Span is a half-open byte range [Start, End) within a single file.
type Span struct {
	File  FileID
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Covers reports whether s fully contains other (same file).
func (s Span) Covers(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

type file struct {
	name       string
	text       string
	revision   int
	lineStarts []int
	memo       map[computationKey]any
}

type computationKey struct {
	file     FileID
	revision int
	kind     string
}

// Database owns source text for a set of files and memoizes derived
// computations keyed by (FileID, revision).
type Database struct {
	files  map[FileID]*file
	nextID FileID
}

// NewDatabase returns an empty source database.
func NewDatabase() *Database {
	return &Database{files: make(map[FileID]*file)}
}

// AddFile registers a new file with the given name and initial text,
// returning its FileID.
func (db *Database) AddFile(name, text string) FileID {
	db.nextID++
	id := db.nextID
	db.files[id] = &file{
		name:       name,
		text:       text,
		revision:   1,
		lineStarts: computeLineStarts(text),
		memo:       make(map[computationKey]any),
	}
	return id
}

// SetText replaces the text of an existing file, bumping its revision and
// invalidating every value memoized against the previous revision.
func (db *Database) SetText(id FileID, text string) {
	f, ok := db.files[id]
	if !ok {
		return
	}
	f.text = text
	f.revision++
	f.lineStarts = computeLineStarts(text)
	f.memo = make(map[computationKey]any)
}

// Text returns the current text of a file.
func (db *Database) Text(id FileID) string {
	f, ok := db.files[id]
	if !ok {
		return ""
	}
	return f.text
}

// Name returns the display name (e.g. a path) a file was registered under.
func (db *Database) Name(id FileID) string {
	f, ok := db.files[id]
	if !ok {
		return "<unknown>"
	}
	return f.name
}

// Revision returns the current revision number of a file.
func (db *Database) Revision(id FileID) int {
	f, ok := db.files[id]
	if !ok {
		return 0
	}
	return f.revision
}

// LineCol maps a byte offset to a 1-based line and 0-based column.
func (db *Database) LineCol(id FileID, offset int) (line, col int) {
	f, ok := db.files[id]
	if !ok {
		return 1, 0
	}
	// sort.Search finds the first lineStart > offset; the line containing
	// offset is the one before that.
	idx := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	})
	line = idx // lineStarts[0] == 0, so idx is already 1-based line number
	col = offset - f.lineStarts[idx-1]
	return line, col
}

// LineText returns the text of the given 1-based line number, without its
// terminator.
func (db *Database) LineText(id FileID, line int) (string, bool) {
	f, ok := db.files[id]
	if !ok || line < 1 || line > len(f.lineStarts) {
		return "", false
	}
	start := f.lineStarts[line-1]
	end := len(f.text)
	if line < len(f.lineStarts) {
		end = f.lineStarts[line] - 1 // drop the newline itself
		for end > start && (f.text[end-1] == '\n' || f.text[end-1] == '\r') {
			end--
		}
	}
	if end < start {
		end = start
	}
	return f.text[start:end], true
}

// SpanText returns the substring covered by a span.
func (db *Database) SpanText(span Span) string {
	f, ok := db.files[span.File]
	if !ok {
		return ""
	}
	if span.Start < 0 || span.End > len(f.text) || span.Start > span.End {
		return ""
	}
	return f.text[span.Start:span.End]
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Memoize returns the cached value for key at the file's current revision,
// computing and storing it via compute on a miss. Callers build kind from
// their own stage name (e.g. "lex", "parse", "hir") to keep caches distinct.
func (db *Database) Memoize(id FileID, kind string, compute func() any) any {
	f, ok := db.files[id]
	if !ok {
		return compute()
	}
	key := computationKey{file: id, revision: f.revision, kind: kind}
	if v, ok := f.memo[key]; ok {
		return v
	}
	v := compute()
	f.memo[key] = v
	return v
}
