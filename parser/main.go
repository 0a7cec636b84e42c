// Package parser reads the textual form of sections, tracks, and locations.
//
// A track is one section per line:
//
//	9 (j1, FACING) (j2, NORMAL)
//
// Blank lines and text after '#' are ignored.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"nyiyui.ca/hato/senro/layout"
)

// SyntaxError is returned when the text cannot be read at all, as opposed to the text describing invalid values.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

func syntaxErrorf(tok Token, format string, a ...any) error {
	return &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, a...)}
}

type parser struct {
	l *lexer
}

func New(src io.Reader) *parser {
	return &parser{l: newLexer(src)}
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok, err := p.l.next()
	if err != nil {
		return Token{}, err
	}
	if tok.Type != tt {
		return Token{}, syntaxErrorf(tok, "expected %s, got %s", tt, tok)
	}
	return tok, nil
}

// skipBlank skips empty lines. It returns io.EOF if there is nothing left.
func (p *parser) skipBlank() error {
	for {
		tok, err := p.l.peek()
		if err != nil {
			return err
		}
		switch tok.Type {
		case TTEOF:
			return io.EOF
		case TTNewline:
			p.l.next()
		default:
			return nil
		}
	}
}

// ParseSection reads the next section.
// It returns io.EOF if there are no more sections.
func (p *parser) ParseSection() (layout.Section, error) {
	err := p.skipBlank()
	if err != nil {
		return layout.Section{}, err
	}
	lengthTok, err := p.expect(TTWord)
	if err != nil {
		return layout.Section{}, err
	}
	length, err := strconv.Atoi(lengthTok.Text)
	if err != nil {
		return layout.Section{}, syntaxErrorf(lengthTok, "section length %q is not an integer", lengthTok.Text)
	}
	a, err := p.parseEndpoint()
	if err != nil {
		return layout.Section{}, fmt.Errorf("endpoint 1: %w", err)
	}
	b, err := p.parseEndpoint()
	if err != nil {
		return layout.Section{}, fmt.Errorf("endpoint 2: %w", err)
	}
	end, err := p.l.next()
	if err != nil {
		return layout.Section{}, err
	}
	if end.Type != TTNewline && end.Type != TTEOF {
		return layout.Section{}, syntaxErrorf(end, "expected end of line, got %s", end)
	}
	s, err := layout.NewSection(length, a, b)
	if err != nil {
		return layout.Section{}, fmt.Errorf("line %d: %w", lengthTok.Line, err)
	}
	return s, nil
}

func (p *parser) parseEndpoint() (layout.JunctionEndpoint, error) {
	if _, err := p.expect(TTOpen); err != nil {
		return layout.JunctionEndpoint{}, err
	}
	var id string
	tok, err := p.l.peek()
	if err != nil {
		return layout.JunctionEndpoint{}, err
	}
	// an empty ID is written "(, FACING)"
	if tok.Type != TTComma {
		idTok, err := p.expect(TTWord)
		if err != nil {
			return layout.JunctionEndpoint{}, err
		}
		id = idTok.Text
	}
	if _, err := p.expect(TTComma); err != nil {
		return layout.JunctionEndpoint{}, err
	}
	branchTok, err := p.expect(TTWord)
	if err != nil {
		return layout.JunctionEndpoint{}, err
	}
	if _, err := p.expect(TTClose); err != nil {
		return layout.JunctionEndpoint{}, err
	}
	b, err := layout.ParseBranch(branchTok.Text)
	if err != nil {
		return layout.JunctionEndpoint{}, fmt.Errorf("%d:%d: %w", branchTok.Line, branchTok.Col, err)
	}
	return layout.NewEndpoint(layout.NewJunction(id), b)
}

// ParseSections reads all remaining sections.
func (p *parser) ParseSections() ([]layout.Section, error) {
	var ss []layout.Section
	for {
		s, err := p.ParseSection()
		if errors.Is(err, io.EOF) {
			return ss, nil
		} else if err != nil {
			return nil, fmt.Errorf("section %d: %w", len(ss), err)
		}
		ss = append(ss, s)
	}
}

// ParseTrack reads all remaining sections and adds them to a new track.
// Sections repeated verbatim are allowed; sections sharing an endpoint are not (see layout.Track.AddSection).
func (p *parser) ParseTrack() (*layout.Track, error) {
	t := layout.NewTrack()
	for i := 0; true; i++ {
		s, err := p.ParseSection()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		err = t.AddSection(s)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
	}
	return t, nil
}

// ParseTrack is New(strings.NewReader(src)).ParseTrack().
func ParseTrack(src string) (*layout.Track, error) {
	return New(strings.NewReader(src)).ParseTrack()
}

// ParseSection parses a single section.
func ParseSection(src string) (layout.Section, error) {
	p := New(strings.NewReader(src))
	s, err := p.ParseSection()
	if errors.Is(err, io.EOF) {
		return layout.Section{}, &SyntaxError{Line: 1, Col: 1, Msg: "no section"}
	} else if err != nil {
		return layout.Section{}, err
	}
	if err := p.skipBlank(); !errors.Is(err, io.EOF) {
		tok, _ := p.l.peek()
		return layout.Section{}, syntaxErrorf(tok, "trailing %s after section", tok)
	}
	return s, nil
}

// locationWords is the fixed part of "Distance <offset> from <junction> along the <branch> branch".
var locationWords = [8]string{"Distance", "", "from", "", "along", "the", "", "branch"}

// ParseLocation parses a location on section s, in either of the forms of layout.Location.String:
//
//	Distance 3 from j1 along the FACING branch
//	j1
//
// For the second form, the junction must be an endpoint of s.
func ParseLocation(src string, s layout.Section) (layout.Location, error) {
	var words []Token
	l := newLexer(strings.NewReader(strings.TrimSpace(src)))
	for {
		tok, err := l.next()
		if err != nil {
			return layout.Location{}, err
		}
		if tok.Type == TTEOF {
			break
		}
		if tok.Type != TTWord {
			return layout.Location{}, syntaxErrorf(tok, "unexpected %s", tok)
		}
		words = append(words, tok)
	}
	switch len(words) {
	case 0:
		return layout.Location{}, &SyntaxError{Line: 1, Col: 1, Msg: "empty location"}
	case 1:
		j := layout.NewJunction(words[0].Text)
		for _, e := range []layout.JunctionEndpoint{s.EndpointA(), s.EndpointB()} {
			if e.Junction() == j {
				return layout.NewLocation(s, e, 0)
			}
		}
		return layout.Location{}, fmt.Errorf("junction %s is not on section %s: %w", j, s, layout.ErrInvalidArgument)
	case 8:
		for i, expected := range locationWords {
			if expected != "" && words[i].Text != expected {
				return layout.Location{}, syntaxErrorf(words[i], "expected %q, got %q", expected, words[i].Text)
			}
		}
		offset, err := strconv.Atoi(words[1].Text)
		if err != nil {
			return layout.Location{}, syntaxErrorf(words[1], "offset %q is not an integer", words[1].Text)
		}
		b, err := layout.ParseBranch(words[6].Text)
		if err != nil {
			return layout.Location{}, err
		}
		e, err := layout.NewEndpoint(layout.NewJunction(words[3].Text), b)
		if err != nil {
			return layout.Location{}, err
		}
		return layout.NewLocation(s, e, offset)
	default:
		return layout.Location{}, syntaxErrorf(words[0], "expected 1 or 8 words, got %d", len(words))
	}
}
