package thinkmodel

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Tag names recognized by the model file format. Tags are single-valued
// except example, which may repeat.
const (
	tagID      = "id"
	tagKind    = "type"
	tagField   = "field"
	tagDefine  = "define"
	tagExample = "example"
)

var knownTags = []string{tagID, tagKind, tagField, tagDefine, tagExample}

// parser is a line-by-line state machine over the tag-delimited model
// format. At any point either no tag is open, or exactly one tag is
// accumulating content.
type parser struct {
	current string   // Open tag name, or "" when outside any tag.
	buf     []string // Lines accumulated for the open tag.

	fields   map[string]string // First closed value per single-valued tag.
	examples []string
}

func newParser() *parser {
	return &parser{fields: make(map[string]string, 4)}
}

// stripPrefix removes an optional disposable prefix up to the first '|'
// (e.g. editor line numbers). Lines without a '|' pass through unchanged.
func stripPrefix(line string) string {
	if i := strings.IndexByte(line, '|'); i >= 0 {
		return line[i+1:]
	}
	return line
}

// feed consumes one raw input line.
func (p *parser) feed(line string) {
	line = stripPrefix(line)

	if p.current == "" {
		p.open(line)
		return
	}

	closing := "</" + p.current + ">"
	if i := strings.Index(line, closing); i >= 0 {
		if before := line[:i]; strings.TrimSpace(before) != "" {
			p.buf = append(p.buf, before)
		}
		p.close()
		return
	}

	p.buf = append(p.buf, line)
}

// open looks for an opening marker on a line seen outside any tag. Content
// after the marker belongs to the tag; if the closing marker follows on the
// same line, the tag opens and closes in place.
func (p *parser) open(line string) {
	tag, i := firstTag(line)
	if tag == "" {
		return
	}

	p.current = tag
	p.buf = p.buf[:0]

	rest := line[i+len(tag)+2:] // Skip past "<tag>".

	closing := "</" + tag + ">"
	if j := strings.Index(rest, closing); j >= 0 {
		if before := rest[:j]; strings.TrimSpace(before) != "" {
			p.buf = append(p.buf, before)
		}
		p.close()
		return
	}

	if strings.TrimSpace(rest) != "" {
		p.buf = append(p.buf, rest)
	}
}

// close emits the accumulated content for the open tag and resets the state.
// For single-valued tags the first closed block wins; later repeats are
// dropped. Examples accumulate in order.
func (p *parser) close() {
	content := strings.TrimSpace(strings.Join(p.buf, "\n"))
	if p.current == tagExample {
		if content != "" {
			p.examples = append(p.examples, content)
		}
	} else if _, seen := p.fields[p.current]; !seen {
		p.fields[p.current] = content
	}

	p.current = ""
	p.buf = p.buf[:0]
}

// finish handles end of input. An example still open at EOF has no closing
// tag and its partial content is discarded; an unclosed single-valued tag
// keeps what it accumulated.
func (p *parser) finish() {
	if p.current != "" && p.current != tagExample {
		p.close()
	}
	p.current = ""
}

// firstTag returns the earliest known opening marker on the line and its
// byte offset, or ("", -1) when the line opens nothing.
func firstTag(line string) (string, int) {
	best, at := "", -1
	for _, tag := range knownTags {
		if i := strings.Index(line, "<"+tag+">"); i >= 0 && (at < 0 || i < at) {
			best, at = tag, i
		}
	}
	return best, at
}

func (p *parser) model() Model {
	return Model{
		ID:         p.fields[tagID],
		Kind:       Kind(p.fields[tagKind]),
		Field:      p.fields[tagField],
		Definition: p.fields[tagDefine],
		Examples:   p.examples,
	}
}

// ParseFile loads a single model file. It returns a *ParseError when the
// file cannot be read or a required field is missing or invalid; a Model is
// never partially constructed.
func ParseFile(path string) (Model, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from directory enumeration or caller config
	if err != nil {
		return Model{}, &ParseError{Path: path, Err: fmt.Errorf("read file: %w", err)}
	}
	defer func() { _ = f.Close() }()

	p := newParser()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.feed(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Model{}, &ParseError{Path: path, Err: fmt.Errorf("read file: %w", err)}
	}
	p.finish()

	m := p.model()
	if err := m.validate(); err != nil {
		return Model{}, &ParseError{Path: path, Err: err}
	}

	return m, nil
}
