package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type Token struct {
	Type TokenType
	// Text is set for TTWord.
	Text string
	Line int
	Col  int
}

func (t Token) String() string {
	switch t.Type {
	case TTWord:
		return fmt.Sprintf("%q", t.Text)
	default:
		return t.Type.String()
	}
}

type TokenType int

const (
	TTInvalid TokenType = iota
	TTEOF
	TTNewline
	TTOpen
	TTClose
	TTComma
	// TTWord is a run of characters that are not whitespace or one of "(),#".
	TTWord
)

func (tt TokenType) String() string {
	switch tt {
	case TTEOF:
		return "EOF"
	case TTNewline:
		return "newline"
	case TTOpen:
		return "'('"
	case TTClose:
		return "')'"
	case TTComma:
		return "','"
	case TTWord:
		return "word"
	default:
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
}

type lexer struct {
	r    *bufio.Reader
	line int
	col  int
	// peeked is the token returned by the next call to next, if set.
	peeked *Token
}

func newLexer(src io.Reader) *lexer {
	return &lexer{
		r:    bufio.NewReader(src),
		line: 1,
		col:  0,
	}
}

func (l *lexer) readRune() (rune, error) {
	r, _, err := l.r.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r, nil
}

func isDelim(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("(),#", r)
}

func (l *lexer) peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.lex()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

func (l *lexer) next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.lex()
}

func (l *lexer) lex() (Token, error) {
	for {
		line, col := l.line, l.col+1
		r, err := l.readRune()
		if err == io.EOF {
			return Token{Type: TTEOF, Line: line, Col: col}, nil
		} else if err != nil {
			return Token{}, fmt.Errorf("read: %w", err)
		}
		switch {
		case r == '\n':
			return Token{Type: TTNewline, Line: line, Col: col}, nil
		case unicode.IsSpace(r):
		case r == '#':
			for {
				r, err := l.readRune()
				if err == io.EOF {
					return Token{Type: TTEOF, Line: l.line, Col: l.col + 1}, nil
				} else if err != nil {
					return Token{}, fmt.Errorf("read: %w", err)
				}
				if r == '\n' {
					return Token{Type: TTNewline, Line: line, Col: col}, nil
				}
			}
		case r == '(':
			return Token{Type: TTOpen, Line: line, Col: col}, nil
		case r == ')':
			return Token{Type: TTClose, Line: line, Col: col}, nil
		case r == ',':
			return Token{Type: TTComma, Line: line, Col: col}, nil
		default:
			buf := new(strings.Builder)
			buf.WriteRune(r)
			for {
				prevLine, prevCol := l.line, l.col
				r, err := l.readRune()
				if err == io.EOF {
					break
				} else if err != nil {
					return Token{}, fmt.Errorf("read: %w", err)
				}
				if isDelim(r) {
					// leave the delimiter for the next token
					_ = l.r.UnreadRune()
					l.line, l.col = prevLine, prevCol
					break
				}
				buf.WriteRune(r)
			}
			return Token{Type: TTWord, Text: buf.String(), Line: line, Col: col}, nil
		}
	}
}
