package statusbar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

const maxConfigLine = 1 << 20

// ParseConfig parses the producer config file at path.
//
// The grammar is the producer's own line-oriented dialect: sections are
// opened with `name {` or `name "arg" {`, hold `key = value` lines and are
// closed by `}`. Sections do not nest. The order sequence is written either
// as `order += "name"` lines or as an `order { ... }` block of literals.
func ParseConfig(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseConfigReader(path, f)
}

// ParseConfigReader parses config text read from r. path is only used in
// error messages.
func ParseConfigReader(path string, r io.Reader) (*Configuration, error) {
	p := &configParser{cfg: newConfiguration(path)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxConfigLine)
	for scanner.Scan() {
		p.lineNo++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if p.inSection {
		return nil, p.syntaxError("unterminated section %q", p.section)
	}

	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.cfg, nil
}

type configParser struct {
	cfg       *Configuration
	lineNo    int
	inSection bool
	inOrder   bool
	section   string
}

func (p *configParser) syntaxError(format string, args ...any) error {
	return &ConfigSyntaxError{Path: p.cfg.Path, Line: p.lineNo, Msg: fmt.Sprintf(format, args...)}
}

func (p *configParser) parseLine(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if p.inSection {
		return p.parseSectionLine(line)
	}

	if isOrderStatement(line) {
		return p.parseOrderStatement(strings.TrimSpace(line[len(SectionOrder):]))
	}

	brace := indexUnquoted(line, '{')
	if brace < 0 {
		if line == "}" {
			return p.syntaxError("unexpected '}' outside of a section")
		}
		return p.syntaxError("expected a section opening '{' in %q", line)
	}

	header := strings.TrimSpace(line[:brace])
	if header == "" {
		return p.syntaxError("missing section name")
	}
	p.open(evalParam(header), false)

	return p.parseInline(strings.TrimSpace(line[brace+1:]))
}

// parseInline handles what follows the opening brace on the same line.
func (p *configParser) parseInline(rest string) error {
	if rest == "" {
		return nil
	}

	closing := false
	if body, ok := strings.CutSuffix(rest, "}"); ok && indexUnquoted(rest, '}') == len(rest)-1 {
		rest = strings.TrimSpace(body)
		closing = true
	}

	if rest != "" {
		if indexUnquoted(rest, '{') >= 0 {
			return p.syntaxError("nested section in %q", p.section)
		}
		if err := p.parseEntry(rest); err != nil {
			return err
		}
	}

	if closing {
		p.close()
	}
	return nil
}

func (p *configParser) parseSectionLine(line string) error {
	if line == "}" {
		p.close()
		return nil
	}
	if indexUnquoted(line, '{') >= 0 {
		return p.syntaxError("nested section in %q", p.section)
	}
	return p.parseInline(line)
}

// parseEntry handles one assignment, or one literal inside an order block.
func (p *configParser) parseEntry(text string) error {
	if p.inOrder {
		return p.appendOrder(evalValue(text).String())
	}
	return p.assign(text)
}

func (p *configParser) parseOrderStatement(rest string) error {
	if strings.HasPrefix(rest, "{") {
		p.open(SectionOrder, true)
		return p.parseInline(strings.TrimSpace(rest[1:]))
	}

	eq := indexUnquoted(rest, '=')
	if eq < 0 {
		return p.syntaxError("missing '=' in order statement")
	}
	return p.appendOrder(evalValue(rest[eq+1:]).String())
}

func (p *configParser) assign(text string) error {
	eq := indexUnquoted(text, '=')
	if eq < 0 {
		return p.syntaxError("missing '=' in assignment %q", text)
	}

	key := evalParam(strings.TrimSpace(text[:eq]))
	if key == "" {
		return p.syntaxError("missing key in assignment %q", text)
	}
	value := evalValue(text[eq+1:])

	if moduleKind(key) == "on_click" {
		return p.assignClick(key, value)
	}

	p.cfg.Sections[p.section][key] = value
	return nil
}

func (p *configParser) assignClick(key string, value Value) error {
	fields := strings.Fields(key)
	if len(fields) < 2 {
		return &InvalidClickButtonError{Section: p.section}
	}

	button, err := strconv.Atoi(fields[1])
	if err != nil || button < 1 || button > 5 || len(fields) > 2 {
		return &InvalidClickButtonError{Section: p.section, Button: strings.Join(fields[1:], " ")}
	}

	cmds, ok := p.cfg.OnClick[p.section]
	if !ok {
		cmds = make(map[int]string)
		p.cfg.OnClick[p.section] = cmds
	}
	cmds[button] = value.String()
	return nil
}

func (p *configParser) appendOrder(name string) error {
	if name == "" {
		return p.syntaxError("empty order entry")
	}

	cfg := p.cfg
	cfg.Order = append(cfg.Order, name)
	if _, ok := cfg.Sections[name]; !ok {
		cfg.Sections[name] = make(Section)
	}

	if isProducerModuleName(name) {
		cfg.ProducerModules = append(cfg.ProducerModules, name)
	} else {
		cfg.WorkerModules = append(cfg.WorkerModules, name)
	}
	return nil
}

func (p *configParser) open(name string, order bool) {
	p.inSection = true
	p.inOrder = order
	p.section = name
	if order {
		return
	}
	if _, ok := p.cfg.Sections[name]; !ok {
		p.cfg.Sections[name] = make(Section)
	}
}

func (p *configParser) close() {
	p.inSection = false
	p.inOrder = false
	p.section = ""
}

// finish validates the output format and drops producer modules that were
// ordered but never configured and have no producer default.
func (p *configParser) finish() error {
	cfg := p.cfg

	format := cfg.General()["output_format"].String()
	if format != OutputFormat {
		return &UnsupportedOutputFormatError{Path: cfg.Path, Format: format}
	}

	var dropped []string
	for _, name := range cfg.Order {
		if needsSection(name) && len(cfg.Sections[name]) == 0 && !slices.Contains(dropped, name) {
			dropped = append(dropped, name)
		}
	}
	if len(dropped) == 0 {
		return nil
	}

	isDropped := func(name string) bool { return slices.Contains(dropped, name) }
	cfg.Order = slices.DeleteFunc(cfg.Order, isDropped)
	cfg.ProducerModules = slices.DeleteFunc(cfg.ProducerModules, isDropped)
	for _, name := range dropped {
		delete(cfg.Sections, name)
	}
	return nil
}

// isOrderStatement reports whether line starts with the order keyword.
func isOrderStatement(line string) bool {
	rest, ok := strings.CutPrefix(line, SectionOrder)
	if !ok {
		return false
	}
	rest = strings.TrimLeft(rest, " \t")
	return strings.HasPrefix(rest, "+=") || strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, "{")
}

// indexUnquoted returns the index of the first c outside quotes, or -1.
func indexUnquoted(s string, c byte) int {
	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case quote != 0:
			if escaped {
				escaped = false
			} else if b == '\\' && quote == '"' {
				escaped = true
			} else if b == quote {
				quote = 0
			}
		case b == '"' || b == '\'':
			quote = b
		case b == c:
			return i
		}
	}
	return -1
}
