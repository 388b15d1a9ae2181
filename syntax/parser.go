package syntax

import (
	"fmt"

	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/lex"
	"github.com/hadronomy/ram/source"
)

// Grammar:
//
//	program     := { line NEWLINE } line? EOF
//	line        := [ label_def ] [ instruction ] [ comment ]
//	label_def   := IDENT ':'
//	instruction := IDENT [ operand ]
//	operand     := immediate | indirect | direct | label_ref
//	immediate   := '=' NUMBER
//	indirect    := '*' NUMBER
//	direct      := NUMBER [ accessor ]
//	label_ref   := IDENT
//	accessor    := '[' index ']'
//	index       := immediate | indirect | direct
//
// Parse runs the lexer over the file's current text and builds a lossless
// CST plus a diagnostic bag. Parsing always produces a complete tree
// covering all input, resynchronizing after errors rather than aborting.
func Parse(file source.FileID, db *source.Database) (*Tree, diag.Bag) {
	result := db.Memoize(file, "syntax.parse", func() any {
		text := db.Text(file)
		toks := lex.New(file, text).All()
		p := &parser{file: file, db: db, toks: toks}
		root := p.parseProgram()
		return &parseResult{tree: &Tree{File: file, Root: root}, diags: p.diags}
	}).(*parseResult)
	return result.tree, result.diags
}

type parseResult struct {
	tree  *Tree
	diags diag.Bag
}

type parser struct {
	file  source.FileID
	db    *source.Database
	toks  []lex.Token
	idx   int
	stack []*Node
	diags diag.Bag
}

func (p *parser) open(kind NodeKind) {
	p.stack = append(p.stack, &Node{Kind: kind})
}

func (p *parser) close() *Node {
	n := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.push(n)
	return n
}

func (p *parser) push(el Element) {
	if len(p.stack) == 0 {
		return
	}
	top := p.stack[len(p.stack)-1]
	top.Children = append(top.Children, el)
}

func (p *parser) cur() lex.Token { return p.toks[p.idx] }

// bump consumes the current raw token (whatever it is) and attaches it as a
// leaf of the currently open node.
func (p *parser) bump() lex.Token {
	tok := p.toks[p.idx]
	p.push(Leaf{Token: tok, Text: p.db.SpanText(tok.Span)})
	if tok.Kind != lex.EOF {
		p.idx++
	}
	return tok
}

// skipWhitespace attaches any run of WHITESPACE tokens at the cursor to the
// currently open node, without attaching HASH_COMMENT (comments are parsed
// explicitly by the grammar's `comment` rule, not silently skipped).
func (p *parser) skipWhitespace() {
	for p.cur().Kind == lex.WHITESPACE {
		p.bump()
	}
}

// peek returns the kind of the next significant token, skipping (and
// attaching) whitespace first.
func (p *parser) peek() lex.Kind {
	p.skipWhitespace()
	return p.cur().Kind
}

// peekAdjacent returns the kind of the token immediately following the
// cursor with no whitespace skip, used for the IDENT ':' label_def tie-break.
func (p *parser) peekAdjacent(offset int) lex.Kind {
	i := p.idx + offset
	if i >= len(p.toks) {
		return lex.EOF
	}
	return p.toks[i].Kind
}

func (p *parser) addDiag(code, msg string, span source.Span) {
	p.diags.Add(diag.New(diag.Error, code, msg, span))
}

func (p *parser) parseProgram() *Node {
	p.open(ROOT)
	for p.peek() != lex.EOF {
		p.parseLine()
	}
	p.bump() // EOF
	return p.close()
}

func (p *parser) parseLine() {
	p.open(LINE)

	if p.peek() == lex.IDENT && p.peekAdjacent(1) == lex.COLON {
		p.parseLabelDef()
	}

	if p.peek() == lex.IDENT {
		p.parseInstruction()
	}

	if p.peek() == lex.HASH_COMMENT {
		p.parseComment()
	}

	switch p.peek() {
	case lex.NEWLINE:
		p.bump()
	case lex.EOF:
		// program-level EOF is consumed by parseProgram.
	default:
		p.recoverLine()
		if p.peek() == lex.NEWLINE {
			p.bump()
		}
	}

	p.close()
}

func (p *parser) parseLabelDef() {
	p.open(LABEL_DEF)
	p.bump() // IDENT
	p.bump() // ':'
	p.close()
}

func (p *parser) parseInstruction() {
	p.open(INSTRUCTION)
	p.bump() // opcode IDENT
	if isOperandStart(p.peek()) {
		p.open(OPERAND)
		p.parseOperandBody(true)
		p.close()
	}
	p.close()
}

func (p *parser) parseComment() {
	p.open(COMMENT)
	p.bump() // HASH_COMMENT
	p.close()
}

func isOperandStart(k lex.Kind) bool {
	switch k {
	case lex.EQUALS, lex.STAR, lex.NUMBER, lex.IDENT:
		return true
	default:
		return false
	}
}

// parseOperandBody parses one of immediate|indirect|direct|label_ref
// (operand), or immediate|indirect|direct (index, when allowLabelRef is
// false) as the single child of the currently open node.
func (p *parser) parseOperandBody(allowLabelRef bool) {
	switch p.peek() {
	case lex.EQUALS:
		p.parseImmediate()
	case lex.STAR:
		p.parseIndirect()
	case lex.NUMBER:
		p.parseDirect(allowLabelRef)
	case lex.IDENT:
		if allowLabelRef {
			p.parseLabelRef()
		} else {
			p.unexpected(fmt.Sprintf("label reference not allowed here: %q", p.db.SpanText(p.cur().Span)))
		}
	default:
		p.unexpected("expected an operand")
	}
}

func (p *parser) parseImmediate() {
	p.open(IMMEDIATE)
	p.bump() // '='
	p.expectNumber()
	p.close()
}

func (p *parser) parseIndirect() {
	p.open(INDIRECT)
	p.bump() // '*'
	p.expectNumber()
	p.close()
}

func (p *parser) parseDirect(allowAccessor bool) {
	p.open(DIRECT)
	p.bump() // NUMBER
	if allowAccessor && p.peek() == lex.LBRACK {
		p.parseAccessor()
	}
	p.close()
}

func (p *parser) parseLabelRef() {
	p.open(LABEL_REF)
	p.bump() // IDENT
	p.close()
}

func (p *parser) parseAccessor() {
	p.open(ACCESSOR)
	p.bump() // '['
	p.open(INDEX)
	p.parseOperandBody(false)
	p.close() // INDEX
	if p.peek() == lex.RBRACK {
		p.bump()
	} else {
		p.addDiag(diag.CodeUnterminatedList, "unterminated accessor: expected ']'", p.cur().Span)
		p.open(ERROR)
		for p.cur().Kind != lex.NEWLINE && p.cur().Kind != lex.EOF {
			p.bump()
		}
		n := p.close()
		n.Message = "unterminated accessor"
	}
	p.close() // ACCESSOR
}

func (p *parser) expectNumber() {
	if p.peek() == lex.NUMBER {
		p.bump()
		return
	}
	p.unexpected("expected a number")
}

// unexpected reports a diagnostic at the cursor and wraps the current token
// in an ERROR node without consuming the rest of the line; callers that need
// full-line resynchronization call recoverLine from parseLine instead.
func (p *parser) unexpected(msg string) {
	p.addDiag(diag.CodeUnexpectedToken, msg, p.cur().Span)
	p.open(ERROR)
	if p.cur().Kind != lex.NEWLINE && p.cur().Kind != lex.EOF {
		p.bump()
	}
	n := p.close()
	n.Message = msg
}

// recoverLine wraps everything from the cursor up to (but not including) the
// next NEWLINE or EOF into a single ERROR node.
func (p *parser) recoverLine() {
	tok := p.cur()
	p.addDiag(diag.CodeTrailingGarbage, fmt.Sprintf("unexpected token %s", tok.Kind), tok.Span)
	p.open(ERROR)
	for p.cur().Kind != lex.NEWLINE && p.cur().Kind != lex.EOF {
		p.bump()
	}
	n := p.close()
	n.Message = "trailing garbage"
}
