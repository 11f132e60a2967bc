package parser

type tokenKind int

const (
	tokName tokenKind = iota
	tokLBracket
	tokRBracket
	tokOp
	tokVersion
	tokEOF
)

func (k tokenKind) String() string {
	switch k {
	case tokName:
		return "name"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokOp:
		return "comparator"
	case tokVersion:
		return "version"
	default:
		return "end of input"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits a registry line into tokens. Whitespace between tokens is
// ignored. Anything after a comparator up to the next space is one version
// token; its shape is checked by the parser, not here.
func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, text: "[", pos: i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, text: "]", pos: i})
			i++
		case isOpChar(c):
			op, width, err := lexOperator(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += width
		case len(toks) > 0 && toks[len(toks)-1].kind == tokOp:
			start := i
			for i < len(input) && isVersionChar(input[i]) {
				i++
			}
			if start == i {
				return nil, syntaxError(input, i, "unexpected character %q in version", c)
			}
			toks = append(toks, token{kind: tokVersion, text: input[start:i], pos: start})
		case isNameChar(c):
			start := i
			for i < len(input) && isNameChar(input[i]) {
				i++
			}
			toks = append(toks, token{kind: tokName, text: input[start:i], pos: start})
		case c == ';':
			return nil, syntaxError(input, i, "environment markers are not supported")
		case c == '@':
			return nil, syntaxError(input, i, "direct references are not supported; use a git+ URI")
		default:
			return nil, syntaxError(input, i, "unexpected character %q", c)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

func lexOperator(input string, i int) (string, int, error) {
	two := ""
	if i+1 < len(input) {
		two = input[i : i+2]
	}
	switch two {
	case "==":
		if i+2 < len(input) && input[i+2] == '=' {
			return "", 0, syntaxError(input, i, "arbitrary equality (===) is not supported")
		}
		return two, 2, nil
	case ">=", "<=", "~=":
		return two, 2, nil
	case "!=":
		return "", 0, syntaxError(input, i, "exclusion (!=) is not supported")
	}
	switch input[i] {
	case '>', '<':
		return input[i : i+1], 1, nil
	}
	return "", 0, syntaxError(input, i, "incomplete comparator %q", input[i:i+1])
}

func isOpChar(c byte) bool {
	return c == '=' || c == '>' || c == '<' || c == '~' || c == '!'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isNameChar(c byte) bool {
	return isAlnum(c) || c == '-' || c == '_' || c == '.'
}

func isVersionChar(c byte) bool {
	return isAlnum(c) || c == '.' || c == '-' || c == '_' || c == '!' || c == '+' || c == '*'
}
