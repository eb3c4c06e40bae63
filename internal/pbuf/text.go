package pbuf

import "strings"

// stripComments removes `#` comments, each running to the end of its line.
// The newline that ends a comment is kept, so tokens on adjacent lines
// stay separate.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inComment := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '#':
			inComment = true
		case inComment:
			if s[i] == '\n' {
				inComment = false
				b.WriteByte('\n')
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// tokenize splits a text-format document. Whitespace, ':', '"' and ';'
// separate tokens and are dropped; braces are tokens of their own.
func tokenize(s string) []string {
	tokens := make([]string, 0, len(s)/7+1)
	var token strings.Builder
	flush := func() {
		if token.Len() > 0 {
			tokens = append(tokens, token.String())
			token.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ' ', '\t', '\r', '\n', ':', '"', ';':
			flush()
		case '{', '}':
			flush()
			tokens = append(tokens, string(c))
		default:
			token.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// tokenCursor iterates a token list, reporting the token index in errors.
type tokenCursor struct {
	tokens []string
	pos    int
}

func (c *tokenCursor) next() (string, error) {
	if c.pos >= len(c.tokens) {
		return "", parseErr("text", c.pos, "unexpected end of document")
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, nil
}

func (c *tokenCursor) peek() (string, error) {
	if c.pos >= len(c.tokens) {
		return "", parseErr("text", c.pos, "unexpected end of document")
	}
	return c.tokens[c.pos], nil
}

func (c *tokenCursor) expect(want string) error {
	tok, err := c.next()
	if err != nil {
		return err
	}
	if tok != want {
		return parseErr("text", c.pos-1, "expected %q, found %q", want, tok)
	}
	return nil
}
