package protocol

import (
	"strconv"
	"strings"
	"time"
)

// SyntaxError reports a malformed command line. It is converted into an
// ARG ack by the parser; it never escapes the protocol package.
type SyntaxError struct {
	msg string
}

func (e *SyntaxError) Error() string {
	return e.msg
}

func syntaxErrorf(msg string) *SyntaxError {
	return &SyntaxError{msg: msg}
}

// SplitLine separates the verb from its raw argument bytes. The verb is
// everything up to the first space; it is never quoted.
func SplitLine(line string) (verb, args string) {
	if pos := strings.IndexByte(line, ' '); pos >= 0 {
		return line[:pos], line[pos+1:]
	}
	return line, ""
}

// Tokenizer yields argument tokens from the remainder of a command line,
// one at a time. Tokens are separated by spaces; a token may be enclosed
// in double or single quotes, inside which a backslash escapes the next
// byte. The zero value is an empty tokenizer.
type Tokenizer struct {
	rest string
}

// NewTokenizer returns a tokenizer over the argument portion of a line.
func NewTokenizer(args string) *Tokenizer {
	return &Tokenizer{rest: strings.TrimLeft(args, " ")}
}

// errMissingArg marks an argument read past the end of the line; the
// parser turns it into a "wrong number of arguments" ack.
var errMissingArg = &SyntaxError{msg: "missing argument"}

// More reports whether another token is available.
func (t *Tokenizer) More() bool {
	return len(t.rest) > 0
}

// Next returns the next token. Calling Next with no tokens left returns
// errMissingArg.
func (t *Tokenizer) Next() (string, error) {
	if t.rest == "" {
		return "", errMissingArg
	}
	switch t.rest[0] {
	case '"', '\'':
		return t.nextQuoted(t.rest[0])
	}
	token := t.rest
	if pos := strings.IndexByte(t.rest, ' '); pos >= 0 {
		token = t.rest[:pos]
		t.rest = strings.TrimLeft(t.rest[pos+1:], " ")
	} else {
		t.rest = ""
	}
	return token, nil
}

func (t *Tokenizer) nextQuoted(delim byte) (string, error) {
	var b strings.Builder
	i := 1
	for i < len(t.rest) {
		c := t.rest[i]
		switch c {
		case '\\':
			if i+1 >= len(t.rest) {
				return "", syntaxErrorf("bad escape sequence")
			}
			b.WriteByte(t.rest[i+1])
			i += 2
		case delim:
			t.rest = strings.TrimLeft(t.rest[i+1:], " ")
			return b.String(), nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", syntaxErrorf("missing closing " + string(delim))
}

// NextInt returns the next token parsed as a non-negative integer.
func (t *Tokenizer) NextInt() (int, error) {
	token, err := t.Next()
	if err != nil {
		return 0, err
	}
	return parseInt(token)
}

// NextBool returns the next token parsed as an MPD boolean (0 or 1).
func (t *Tokenizer) NextBool() (bool, error) {
	n, err := t.NextInt()
	if err != nil {
		return false, err
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, syntaxErrorf("boolean (0/1) expected: " + strconv.Itoa(n))
}

// NextRange returns the next token parsed as either a single position or
// an inclusive START:END range.
func (t *Tokenizer) NextRange() (Range, error) {
	token, err := t.Next()
	if err != nil {
		return Range{}, err
	}
	return parseRange(token)
}

// NextDuration returns the next token parsed as a number of seconds.
// Fractional seconds are accepted, matching seekcur clients.
func (t *Tokenizer) NextDuration() (time.Duration, error) {
	token, err := t.Next()
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(token, 64)
	if err != nil || secs < 0 {
		return 0, syntaxErrorf("invalid time: " + token)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseInt(token string) (int, error) {
	n, err := strconv.ParseUint(token, 10, 63)
	if err != nil {
		return 0, syntaxErrorf("invalid number: " + token)
	}
	return int(n), nil
}

// Range is an inclusive position range within the queue. A bare position
// N parses as N:N.
type Range struct {
	Start int
	End   int
}

// Len returns the number of positions the range covers.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Contains reports whether pos falls inside the range.
func (r Range) Contains(pos int) bool {
	return pos >= r.Start && pos <= r.End
}

func parseRange(token string) (Range, error) {
	if pos := strings.IndexByte(token, ':'); pos >= 0 {
		start, err := parseInt(token[:pos])
		if err != nil {
			return Range{}, err
		}
		end, err := parseInt(token[pos+1:])
		if err != nil {
			return Range{}, err
		}
		if end < start {
			return Range{}, syntaxErrorf("decreasing range: " + token)
		}
		return Range{Start: start, End: end}, nil
	}
	n, err := parseInt(token)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: n, End: n}, nil
}
