package flatdoc

import (
	"bytes"
	"io"
)

type scanState uint8

const (
	stValue        scanState = iota // a value is required
	stValueOrClose                  // just after '['
	stName                          // a member name is required (after ',' in an object)
	stNameOrClose                   // just after '{'
	stCommaOrClose                  // after a member or an element
	stDone                          // the top-level value is complete
)

// Scan reads a single document from data and reports its structure to h.
// Strings are delivered exactly as written between the quotes: escape
// sequences are recognized only so that an escaped quote does not end the
// string, and are never decoded.
//
// Scanning stops at the first error, which is a *SyntaxError carrying the
// byte offset reached.
func Scan(data []byte, h Handler) error {
	s := scanner{data: data, h: h}
	return s.run()
}

type scanner struct {
	data  []byte
	off   int
	h     Handler
	stack []byte
	state scanState
}

func (s *scanner) fail(off int, err error, msg string) error {
	return syntaxErrf(int64(off), err, "%s", msg)
}

func (s *scanner) skipSpace() {
	for s.off < len(s.data) {
		switch s.data[s.off] {
		case ' ', '\t', '\n', '\r':
			s.off++
		default:
			return
		}
	}
}

func (s *scanner) run() error {
	for {
		s.skipSpace()
		if s.off >= len(s.data) {
			break
		}
		c := s.data[s.off]
		switch s.state {
		case stValue, stValueOrClose:
			if c == ']' && s.state == stValueOrClose {
				if err := s.close(c); err != nil {
					return err
				}
				continue
			}
			if err := s.value(c); err != nil {
				return err
			}
		case stName, stNameOrClose:
			if c == '}' && s.state == stNameOrClose {
				if err := s.close(c); err != nil {
					return err
				}
				continue
			}
			if err := s.member(c); err != nil {
				return err
			}
		case stCommaOrClose:
			switch c {
			case ',':
				s.off++
				if s.stack[len(s.stack)-1] == '{' {
					s.state = stName
				} else {
					s.state = stValue
				}
			case '}', ']':
				if err := s.close(c); err != nil {
					return err
				}
			default:
				return s.fail(s.off, nil, "expected ',' or a closing bracket, found "+quoteByte(c))
			}
		case stDone:
			return s.fail(s.off, ErrTrailingData, "")
		}
	}
	switch {
	case len(s.stack) > 0:
		return s.fail(s.off, ErrUnclosed, "unexpected end of input")
	case s.state != stDone:
		return s.fail(s.off, ErrNoValue, "unexpected end of input")
	}
	return nil
}

func (s *scanner) afterValue() {
	if len(s.stack) == 0 {
		s.state = stDone
	} else {
		s.state = stCommaOrClose
	}
}

func (s *scanner) close(c byte) error {
	start := s.off
	n := len(s.stack)
	if n == 0 || (c == '}') != (s.stack[n-1] == '{') {
		return s.fail(start, ErrUnmatchedEnd, "unexpected "+quoteByte(c))
	}
	s.off++
	s.stack = s.stack[:n-1]
	if err := s.h.End(); err != nil {
		return s.fail(start, err, "")
	}
	s.afterValue()
	return nil
}

func (s *scanner) member(c byte) error {
	start := s.off
	if c != '"' {
		return s.fail(start, ErrMissingName, "expected a quoted name, found "+quoteByte(c))
	}
	name, err := s.str()
	if err != nil {
		return err
	}
	s.skipSpace()
	if s.off >= len(s.data) || s.data[s.off] != ':' {
		return s.fail(s.off, ErrDanglingName, "expected ':' after name")
	}
	s.off++
	if err := s.h.Name(name); err != nil {
		return s.fail(start, err, "")
	}
	s.state = stValue
	return nil
}

func (s *scanner) value(c byte) error {
	start := s.off
	var err error
	switch {
	case c == '{':
		s.off++
		if err = s.h.BeginObject(); err == nil {
			s.stack = append(s.stack, '{')
			s.state = stNameOrClose
		}
	case c == '[':
		s.off++
		if err = s.h.BeginArray(); err == nil {
			s.stack = append(s.stack, '[')
			s.state = stValueOrClose
		}
	case c == '}' || c == ']':
		return s.fail(start, ErrUnmatchedEnd, "expected a value, found "+quoteByte(c))
	case c == '"':
		var text string
		if text, err = s.str(); err != nil {
			return err
		}
		err = s.h.String(text)
		s.afterValue()
	case c == '-' || (c >= '0' && c <= '9'):
		text, isFloat, nerr := s.number()
		if nerr != nil {
			return nerr
		}
		if isFloat {
			err = s.h.Float(text)
		} else {
			err = s.h.Int(text)
		}
		s.afterValue()
	case s.literal("true"):
		err = s.h.Bool(true)
		s.afterValue()
	case s.literal("false"):
		err = s.h.Bool(false)
		s.afterValue()
	case s.literal("null"):
		err = s.h.Null()
		s.afterValue()
	default:
		return s.fail(start, nil, "unexpected "+quoteByte(c))
	}
	if err != nil {
		return s.fail(start, err, "")
	}
	return nil
}

// str consumes a quoted string starting at s.off and returns its raw text.
func (s *scanner) str() (string, error) {
	start := s.off
	s.off++
	for i := s.off; i < len(s.data); i++ {
		switch s.data[i] {
		case '\\':
			i++
		case '"':
			text := string(s.data[s.off:i])
			s.off = i + 1
			return text, nil
		}
	}
	s.off = len(s.data)
	return "", s.fail(start, io.ErrUnexpectedEOF, "unterminated string")
}

func (s *scanner) number() (text string, isFloat bool, err error) {
	data := s.data
	start := s.off
	i := start
	if i < len(data) && data[i] == '-' {
		i++
	}
	j := skipDigits(data, i)
	if j == i {
		return "", false, s.fail(start, nil, "invalid number")
	}
	i = j
	if i < len(data) && data[i] == '.' {
		isFloat = true
		j = skipDigits(data, i+1)
		if j == i+1 {
			return "", false, s.fail(start, nil, "invalid number: no digits after '.'")
		}
		i = j
	}
	if i < len(data) && (data[i] == 'e' || data[i] == 'E') {
		isFloat = true
		i++
		if i < len(data) && (data[i] == '+' || data[i] == '-') {
			i++
		}
		j = skipDigits(data, i)
		if j == i {
			return "", false, s.fail(start, nil, "invalid number: no digits in exponent")
		}
		i = j
	}
	if i < len(data) && isWordByte(data[i]) {
		return "", false, s.fail(start, nil, "invalid number")
	}
	s.off = i
	return string(data[start:i]), isFloat, nil
}

// literal consumes word if it appears at s.off as a whole word.
func (s *scanner) literal(word string) bool {
	rest := s.data[s.off:]
	if !bytes.HasPrefix(rest, []byte(word)) {
		return false
	}
	if len(rest) > len(word) && isWordByte(rest[len(word)]) {
		return false
	}
	s.off += len(word)
	return true
}

func skipDigits(data []byte, i int) int {
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}
	return i
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c == '+' || c == '-' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func quoteByte(c byte) string {
	if c < 0x20 || c >= 0x7f {
		return "byte 0x" + string("0123456789abcdef"[c>>4]) + string("0123456789abcdef"[c&0xf])
	}
	return "'" + string(c) + "'"
}

// Parse builds a tree from text. On error the returned tree still holds every
// node staged before the point where scanning stopped.
func Parse(data []byte, opt Options) (*Tree, error) {
	t := newEmpty(opt)
	err := t.LoadText(data)
	return t, err
}

// ParseReader reads r to the end and parses the result.
func ParseReader(r io.Reader, opt Options) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, opt)
}

// LoadText replaces the contents of t with the document in data.
func (t *Tree) LoadText(data []byte) error {
	b := NewBuilder(t.opt)
	err := Scan(data, b)
	b.Materialize(t)
	return err
}
