package statusbar

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind tells how a config value was written
type ValueKind int

const (
	// KindToken is a bare token kept as written (e.g. true, 0.5, %a)
	KindToken ValueKind = iota
	// KindString is a quoted string literal
	KindString
	// KindInt is an integer literal
	KindInt
)

// Value is a config value: a quoted string, an integer or a raw token.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
}

// StringValue returns a quoted-string Value
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IntValue returns an integer Value
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i, Str: strconv.FormatInt(i, 10)}
}

// TokenValue returns a raw-token Value
func TokenValue(tok string) Value {
	return Value{Kind: KindToken, Str: tok}
}

// String returns the value as text, without quotes
func (v Value) String() string {
	return v.Str
}

// Render returns the value the way it is written in a config file
func (v Value) Render() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.Str
}

// MarshalYAML keeps integers numeric in YAML dumps
func (v Value) MarshalYAML() (any, error) {
	if v.Kind == KindInt {
		return v.Int, nil
	}
	return v.Str, nil
}

var _ yaml.Marshaler = Value{}

// evalValue evaluates a single config value. Only quoted strings and
// integers are recognized; anything else is kept as a token.
func evalValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if s, ok := unquote(raw); ok {
		return StringValue(s)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return IntValue(i)
	}
	return TokenValue(raw)
}

// evalParam evaluates every space separated token of a section header or
// key and joins the results with single spaces: `disk "/home"` becomes
// `disk /home` and `"cpu_temperature" 0` becomes `cpu_temperature 0`.
func evalParam(raw string) string {
	tokens := splitTokens(raw)
	for i, tok := range tokens {
		tokens[i] = evalValue(tok).String()
	}
	return strings.Join(tokens, " ")
}

// splitTokens splits on whitespace while keeping quoted runs together.
func splitTokens(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote byte
	escaped := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' && quote == '"' {
				escaped = true
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	return tokens
}

// unquote decodes a double quoted (Go escapes) or single quoted (verbatim)
// literal.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		u, err := strconv.Unquote(s)
		if err != nil {
			return "", false
		}
		return u, true
	case s[0] == '\'' && s[len(s)-1] == '\'':
		inner := s[1 : len(s)-1]
		if strings.ContainsRune(inner, '\'') {
			return "", false
		}
		return inner, true
	}
	return "", false
}
