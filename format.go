package bitseq

import (
	"strconv"
	"strings"

	"github.com/arloliu/bitseq/internal/bitstore"
	"github.com/arloliu/bitseq/internal/options"
)

// formatConfig carries the keyword substitutions available to Compile.
type formatConfig struct {
	params map[string]int
}

// FormatOption configures Compile, Pack and the list-reading operations.
// This is a type alias for the generic Option interface specialized for the
// format configuration.
type FormatOption = options.Option[*formatConfig]

// WithParam supplies a value for one keyword length in the format string,
// for example WithParam("n", 12) to resolve "uint:n".
func WithParam(name string, value int) FormatOption {
	return options.New(func(c *formatConfig) error {
		if name == "" {
			return creationf("empty parameter name")
		}
		if c.params == nil {
			c.params = make(map[string]int)
		}
		c.params[name] = value

		return nil
	})
}

// WithParams supplies several keyword lengths at once.
func WithParams(params map[string]int) FormatOption {
	return options.New(func(c *formatConfig) error {
		if c.params == nil {
			c.params = make(map[string]int, len(params))
		}
		for k, v := range params {
			c.params[k] = v
		}

		return nil
	})
}

// planField is one resolved entry of a compiled plan.
type planField struct {
	dtype    *Dtype
	nbits    int // resolved field width; 0 for stretchy and variable entries
	stretchy bool
	hasValue bool
	value    any
}

// Plan is an ordered sequence of resolved fields compiled from one format
// string. Plans are immutable and safe to reuse across reads and packs.
type Plan struct {
	fields    []planField
	fixedBits int // sum of the fixed-width field lengths
	stretchy  bool
}

// NumFields returns the number of fields in the plan, counting padding.
func (p *Plan) NumFields() int {
	return len(p.fields)
}

// Compile tokenizes and parses a format string into a Plan.
//
// The grammar accepts comma-separated tokens (`"uint12, hex:8, pad4"`),
// literal values (`"0x1234"`, `"0b101"`, `"0o17"`), token values
// (`"uint12=352"`), parenthesized groups with an integer multiplier
// (`"2*(uint8, pad1)"`), bare token multipliers (`"3*bool"`), keyword
// lengths resolved through WithParam (`"uint:n"`), and a compact
// struct-style syntax (`">3h2f"`; `<` little-endian, `>` big-endian,
// `=` or `@` native).
//
// At most one field may be stretchy (a length-capable token with no
// length), and no exponential-Golomb field may appear after it: a Golomb
// code's length is only discoverable by scanning forward from a known
// start position.
func Compile(format string, opts ...FormatOption) (*Plan, error) {
	cfg := &formatConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	var tokens []string
	if err := expandFormat(format, 1, &tokens); err != nil {
		return nil, err
	}

	p := &Plan{}
	for _, tok := range tokens {
		fields, err := parseFormatToken(tok, cfg.params)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			if f.dtype.variable && p.stretchy {
				return nil, creationf("%s cannot follow an unbounded field: its start position would be unknown", f.dtype.name)
			}
			if f.stretchy {
				if p.stretchy {
					return nil, creationf("only one unbounded field is allowed per format")
				}
				p.stretchy = true
			}
			p.fixedBits += f.nbits
			p.fields = append(p.fields, f)
		}
	}

	return p, nil
}

// expandFormat splits a format string on top-level commas and expands
// multipliers and parenthesized groups, appending the flattened tokens.
func expandFormat(format string, repeat int, out *[]string) error {
	items, err := splitTopLevel(format)
	if err != nil {
		return err
	}

	for range repeat {
		for _, item := range items {
			mult, body, err := splitMultiplier(item)
			if err != nil {
				return err
			}
			if strings.HasPrefix(body, "(") {
				if !strings.HasSuffix(body, ")") {
					return creationf("unbalanced parentheses in %q", item)
				}
				if err := expandFormat(body[1:len(body)-1], mult, out); err != nil {
					return err
				}
				continue
			}
			if body == "" {
				return creationf("empty token in format string")
			}
			for range mult {
				*out = append(*out, body)
			}
		}
	}

	return nil
}

// splitTopLevel splits on commas that are not nested inside parentheses.
func splitTopLevel(s string) ([]string, error) {
	var items []string
	depth := 0
	start := 0
	for i := range len(s) {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, creationf("unbalanced parentheses in %q", s)
			}
		case ',':
			if depth == 0 {
				items = append(items, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, creationf("unbalanced parentheses in %q", s)
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(items) > 0 {
		items = append(items, last)
	}

	// A trailing comma yields an empty final item; drop it.
	for len(items) > 0 && items[len(items)-1] == "" {
		items = items[:len(items)-1]
	}

	return items, nil
}

// splitMultiplier peels a leading "N*" repeat count off one item.
func splitMultiplier(item string) (int, string, error) {
	i := 0
	for i < len(item) && item[i] >= '0' && item[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(item) || item[i] != '*' {
		return 1, item, nil
	}

	mult, err := strconv.Atoi(item[:i])
	if err != nil || mult < 0 {
		return 0, "", creationf("invalid multiplier in %q", item)
	}

	return mult, strings.TrimSpace(item[i+1:]), nil
}

// parseFormatToken parses one flattened token into plan fields. Struct
// syntax tokens expand to several fields; everything else yields one.
func parseFormatToken(tok string, params map[string]int) ([]planField, error) {
	if tok == "" {
		return nil, creationf("empty token in format string")
	}

	if tok[0] == '<' || tok[0] == '>' || tok[0] == '=' || tok[0] == '@' {
		return parseStructToken(tok)
	}

	if digits, perDigit, ok := parsePrefixLiteral(tok); ok {
		f, err := literalField(digits, perDigit)
		if err != nil {
			return nil, err
		}
		return []planField{f}, nil
	}

	f, err := parseValueToken(tok, params)
	if err != nil {
		return nil, err
	}

	return []planField{f}, nil
}

// parsePrefixLiteral recognizes 0x/0o/0b literals and returns the digit
// string and the bits per digit. Underscores in the digits are ignored.
func parsePrefixLiteral(tok string) (string, int, bool) {
	if len(tok) < 3 {
		return "", 0, false
	}

	var bitsPerDigit int
	switch tok[:2] {
	case "0x", "0X":
		bitsPerDigit = 4
	case "0o", "0O":
		bitsPerDigit = 3
	case "0b", "0B":
		bitsPerDigit = 1
	default:
		return "", 0, false
	}

	digits := strings.ReplaceAll(tok[2:], "_", "")
	if digits == "" {
		return "", 0, false
	}

	return digits, bitsPerDigit, true
}

// literalField builds the plan field for a bare 0x/0o/0b literal.
func literalField(digits string, bitsPerDigit int) (planField, error) {
	var name string
	switch bitsPerDigit {
	case 4:
		name = "hex"
	case 3:
		name = "oct"
	default:
		name = "bin"
	}

	d, err := LookupDtype(name)
	if err != nil {
		return planField{}, err
	}

	return planField{dtype: d, nbits: len(digits) * bitsPerDigit, hasValue: true, value: digits}, nil
}

// parseValueToken parses a name[:]length[=value] token.
func parseValueToken(tok string, params map[string]int) (planField, error) {
	body := tok
	var rawValue string
	hasValue := false
	if eq := strings.IndexByte(body, '='); eq >= 0 {
		rawValue = body[eq+1:]
		body = body[:eq]
		hasValue = true
	}

	name, lenPart, explicitColon := splitNameLength(body)
	d, err := LookupDtype(name)
	if err != nil {
		return planField{}, err
	}

	f := planField{dtype: d}

	switch {
	case lenPart == "":
		// No length on the token.
	case isAllDigits(lenPart):
		n, convErr := strconv.Atoi(lenPart)
		if convErr != nil {
			return planField{}, creationf("invalid length in token %q", tok)
		}
		f.nbits = n * d.bitsPerItem
	case explicitColon:
		n, ok := params[lenPart]
		if !ok {
			return planField{}, creationf("no value supplied for length parameter %q in token %q", lenPart, tok)
		}
		if n < 0 {
			return planField{}, creationf("negative length %d for parameter %q", n, lenPart)
		}
		f.nbits = n * d.bitsPerItem
	default:
		return planField{}, creationf("invalid length %q in token %q", lenPart, tok)
	}

	if d.variable {
		if f.nbits != 0 || lenPart != "" {
			return planField{}, creationf("%s is self-delimiting and takes no length", d.name)
		}
	} else if f.nbits == 0 && lenPart == "" && d.fixedLen > 0 {
		f.nbits = d.fixedLen
	}

	if f.nbits != 0 || (lenPart != "" && !d.variable) {
		if err := d.validLen(f.nbits); err != nil {
			return planField{}, err
		}
	}

	if hasValue {
		if d.noValue {
			return planField{}, creationf("%s takes no value", d.name)
		}
		if d.parseLit == nil {
			return planField{}, creationf("%s does not accept a literal value", d.name)
		}
		v, parseErr := d.parseLit(rawValue)
		if parseErr != nil {
			return planField{}, parseErr
		}
		f.hasValue = true
		f.value = v
	}

	if f.nbits == 0 && !d.variable && !f.hasValue {
		if d.fixedLen == 0 && !d.stretchy {
			return planField{}, creationf("token %q needs a length", tok)
		}
		if d.stretchy {
			f.stretchy = true
		}
	}

	if d.noValue && f.nbits == 0 {
		return planField{}, creationf("pad needs a length")
	}

	return f, nil
}

// splitNameLength divides a token body into its dtype name and length
// part. The length is either after a colon (digits or a keyword) or the
// trailing digits after the longest registered name prefix.
func splitNameLength(body string) (name, lenPart string, explicitColon bool) {
	if colon := strings.IndexByte(body, ':'); colon >= 0 {
		return strings.TrimSpace(body[:colon]), strings.TrimSpace(body[colon+1:]), true
	}

	// Longest registered prefix whose remainder is all digits. Registered
	// names themselves may contain digits (e5m2mxfp, p4binary8), so the
	// whole body is tried first.
	for i := len(body); i > 0; i-- {
		prefix := body[:i]
		if _, ok := registry[prefix]; !ok {
			if _, ok := dtypeAliases[prefix]; !ok {
				continue
			}
		}
		if rest := body[i:]; rest == "" || isAllDigits(rest) {
			return prefix, body[i:], false
		}
	}

	return body, "", false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// parseStructToken expands a struct-style token such as ">hh2f" or "<3q".
var structCodes = map[byte]struct {
	base  string
	nbits int
}{
	'b': {"int", 8},
	'B': {"uint", 8},
	'h': {"int", 16},
	'H': {"uint", 16},
	'l': {"int", 32},
	'L': {"uint", 32},
	'q': {"int", 64},
	'Q': {"uint", 64},
	'e': {"float", 16},
	'f': {"float", 32},
	'd': {"float", 64},
}

func parseStructToken(tok string) ([]planField, error) {
	var suffix string
	switch tok[0] {
	case '<':
		suffix = "le"
	case '>':
		suffix = "be"
	case '=', '@':
		suffix = "ne"
	default:
		return nil, creationf("invalid struct token %q", tok)
	}

	body := tok[1:]
	if body == "" {
		return nil, creationf("struct token %q has no format codes", tok)
	}

	var fields []planField
	i := 0
	for i < len(body) {
		repeat := 1
		j := i
		for j < len(body) && body[j] >= '0' && body[j] <= '9' {
			j++
		}
		if j > i {
			n, err := strconv.Atoi(body[i:j])
			if err != nil || n < 1 {
				return nil, creationf("invalid repeat count in struct token %q", tok)
			}
			repeat = n
			i = j
		}
		if i >= len(body) {
			return nil, creationf("trailing repeat count in struct token %q", tok)
		}

		code, ok := structCodes[body[i]]
		if !ok {
			return nil, creationf("unknown struct code %q in token %q", body[i], tok)
		}
		i++

		d, err := LookupDtype(code.base + suffix)
		if err != nil {
			return nil, err
		}
		for range repeat {
			fields = append(fields, planField{dtype: d, nbits: code.nbits})
		}
	}

	return fields, nil
}

// parseScalarToken parses a single token with no value for scalar use
// (Bits.Value, Reader.Read). It returns the dtype and the resolved bit
// width, 0 when the token carries none.
func parseScalarToken(token string) (*Dtype, int, error) {
	fields, err := parseFormatToken(strings.TrimSpace(token), nil)
	if err != nil {
		return nil, 0, err
	}
	if len(fields) != 1 {
		return nil, 0, creationf("token %q describes %d fields, expected one", token, len(fields))
	}
	f := fields[0]
	if f.hasValue {
		return nil, 0, creationf("token %q carries a value", token)
	}

	return f.dtype, f.nbits, nil
}

// Pack builds a sequence from a format string, filling fields that carry
// no literal value from values in order. Padding fields write zero bits
// and consume no value.
func Pack(format string, values ...any) (*Bits, error) {
	plan, err := Compile(format)
	if err != nil {
		return nil, err
	}

	return plan.Pack(values...)
}

// Pack builds a sequence from the compiled plan and the given values.
func (p *Plan) Pack(values ...any) (*Bits, error) {
	bld := bitstore.NewBuilder(p.fixedBits)
	next := 0
	for _, f := range p.fields {
		if f.dtype.noValue {
			if err := f.dtype.encode(f.dtype, bld, f.nbits, nil); err != nil {
				return nil, err
			}
			continue
		}

		v := f.value
		if !f.hasValue {
			if next >= len(values) {
				return nil, creationf("not enough values: format needs more than %d", len(values))
			}
			v = values[next]
			next++
		}

		nbits := f.nbits
		if nbits == 0 && !f.dtype.variable {
			// Unbounded or length-less field: the value fixes the width.
			inferred, err := inferValueLen(f.dtype, v)
			if err != nil {
				return nil, err
			}
			nbits = inferred
		}

		if err := f.dtype.encodeTo(bld, nbits, v); err != nil {
			return nil, err
		}
	}
	if next != len(values) {
		return nil, creationf("too many values: %d supplied, %d consumed", len(values), next)
	}

	return newBits(bld.Store()), nil
}

// inferValueLen computes the width of an unbounded field from its value.
// Only the families whose values carry an intrinsic length support this.
func inferValueLen(d *Dtype, v any) (int, error) {
	switch d.name {
	case "hex":
		if s, ok := v.(string); ok {
			return len(strings.TrimPrefix(strings.ToLower(s), "0x")) * 4, nil
		}
	case "oct":
		if s, ok := v.(string); ok {
			return len(strings.TrimPrefix(s, "0o")) * 3, nil
		}
	case "bin":
		if s, ok := v.(string); ok {
			return len(strings.TrimPrefix(s, "0b")), nil
		}
	case "bytes":
		switch x := v.(type) {
		case []byte:
			return len(x) * 8, nil
		case string:
			return len(x) * 8, nil
		}
	case "bits":
		if b, ok := v.(*Bits); ok {
			return b.Len(), nil
		}
	default:
		return 0, creationf("%s needs an explicit length to build", d.name)
	}

	return 0, creationf("cannot infer a length for %T as %s", v, d.name)
}

// New builds a sequence from a format string whose fields all carry
// literal values, such as "0x1234" or "uint12=352, pad:4".
func New(format string) (*Bits, error) {
	return Pack(format)
}

// MustNew is New for format strings the caller knows are valid; it panics
// on error.
func MustNew(format string) *Bits {
	b, err := New(format)
	if err != nil {
		panic(err)
	}

	return b
}
