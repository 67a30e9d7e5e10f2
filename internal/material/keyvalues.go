package material

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// ErrSyntax is returned for unbalanced braces or a key without a value.
var ErrSyntax = errors.New("keyvalues syntax error")

// KeyValues is one block of a Valve KeyValues document. The document root
// is the shader block: its Name is the shader.
type KeyValues struct {
	Name    string
	Entries []Entry
}

// Entry is either a key/value pair or a nested block.
type Entry struct {
	Key   string
	Value string
	Block *KeyValues
}

// Get returns the last value stored under key, compared case-insensitively.
func (kv *KeyValues) Get(key string) (string, bool) {
	val, found := "", false
	for _, e := range kv.Entries {
		if e.Block == nil && strings.EqualFold(e.Key, key) {
			val, found = e.Value, true
		}
	}
	return val, found
}

// Child returns the first nested block named key.
func (kv *KeyValues) Child(key string) *KeyValues {
	for _, e := range kv.Entries {
		if e.Block != nil && strings.EqualFold(e.Key, key) {
			return e.Block
		}
	}
	return nil
}

// Decode parses a KeyValues document and returns its first root block.
func Decode(text string) (*KeyValues, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &kvParser{toks: toks}
	name, ok := p.next()
	if !ok || name.brace {
		return nil, errors.Wrap(ErrSyntax, "missing root name")
	}
	open, ok := p.next()
	if !ok || open.text != "{" || !open.brace {
		return nil, errors.Wrapf(ErrSyntax, "expected { after %q", name.text)
	}
	return p.block(name.text)
}

type token struct {
	text  string
	brace bool
}

type kvParser struct {
	toks []token
	pos  int
}

func (p *kvParser) next() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	t := p.toks[p.pos]
	p.pos++
	return t, true
}

func (p *kvParser) block(name string) (*KeyValues, error) {
	kv := &KeyValues{Name: name}
	for {
		key, ok := p.next()
		if !ok {
			return nil, errors.Wrapf(ErrSyntax, "unterminated block %q", name)
		}
		if key.brace {
			if key.text == "}" {
				return kv, nil
			}
			return nil, errors.Wrapf(ErrSyntax, "unexpected { in block %q", name)
		}
		val, ok := p.next()
		if !ok {
			return nil, errors.Wrapf(ErrSyntax, "key %q has no value", key.text)
		}
		switch {
		case val.brace && val.text == "{":
			child, err := p.block(key.text)
			if err != nil {
				return nil, err
			}
			kv.Entries = append(kv.Entries, Entry{Key: key.text, Block: child})
		case val.brace:
			return nil, errors.Wrapf(ErrSyntax, "key %q has no value", key.text)
		default:
			kv.Entries = append(kv.Entries, Entry{Key: key.text, Value: val.text})
		}
	}
}

const (
	tokenBrace = iota
	tokenQuoted
	tokenBare
)

var kvLexer = newLexer()

func newLexer() *lexmachine.Lexer {
	lexer := lexmachine.NewLexer()
	lexer.Add([]byte(`//[^\n]*`), skip)
	lexer.Add([]byte(`\s+`), skip)
	// platform conditionals such as [$WIN32] apply to the preceding entry
	lexer.Add([]byte(`\[[!$A-Za-z0-9_|&]+\]`), skip)
	lexer.Add([]byte(`[{}]`), getToken(tokenBrace))
	lexer.Add([]byte(`"[^"]*"`), getToken(tokenQuoted))
	lexer.Add([]byte(`[^ \t\r\n"{}]+`), getToken(tokenBare))
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
	return lexer
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func tokenize(text string) ([]token, error) {
	scanner, err := kvLexer.Scanner([]byte(text))
	if err != nil {
		return nil, errors.Wrap(err, "keyvalues: scanner")
	}
	var toks []token
	for tok, err, eos := scanner.Next(); !eos; tok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(ErrSyntax, "%v", err)
		}
		t := tok.(*lexmachine.Token)
		lexeme := t.Value.(string)
		switch t.Type {
		case tokenBrace:
			toks = append(toks, token{text: lexeme, brace: true})
		case tokenQuoted:
			toks = append(toks, token{text: lexeme[1 : len(lexeme)-1]})
		default:
			toks = append(toks, token{text: lexeme})
		}
	}
	return toks, nil
}

// ValueKind classifies a parameter value.
type ValueKind int

const (
	String ValueKind = iota
	Number
	Vector
)

// Value is a typed parameter value.
type Value struct {
	Kind   ValueKind
	Raw    string
	Number float64
	Vector []float64
}

// ParseValue types a raw parameter string. "[x y z]" vectors are taken as
// is; "{r g b}" colors are scaled from 0-255 to 0-1.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	v := Value{Kind: String, Raw: raw}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		v.Kind, v.Number = Number, n
		return v
	}
	if len(s) < 2 {
		return v
	}
	div := 0.0
	switch {
	case s[0] == '[' && s[len(s)-1] == ']':
		div = 1
	case s[0] == '{' && s[len(s)-1] == '}':
		div = 255
	default:
		return v
	}
	fields := strings.Fields(s[1 : len(s)-1])
	vec := make([]float64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v
		}
		vec = append(vec, n/div)
	}
	v.Kind, v.Vector = Vector, vec
	return v
}

// Bool reports a numeric value as a flag.
func (v Value) Bool() bool {
	return v.Kind == Number && v.Number != 0
}
