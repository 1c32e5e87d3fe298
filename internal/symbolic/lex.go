package symbolic

import "fmt"

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenNumber
	TokenIdent
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenLParen
	TokenRParen
	TokenComma
)

type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// SyntaxError reports a malformed expression. It is distinct from a
// resolution failure: the input could not be read at all.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// Lex splits src into tokens. Arbitrary interior and surrounding
// whitespace is tolerated. The returned slice always ends with a
// TokenEOF entry.
func Lex(src string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9':
			start := i
			seenDot := false
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !seenDot)) {
				if src[i] == '.' {
					seenDot = true
				}
				i++
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: src[start:i], Pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, Token{Kind: TokenIdent, Text: src[start:i], Pos: start})
		case c == '+':
			tokens = append(tokens, Token{Kind: TokenPlus, Text: "+", Pos: i})
			i++
		case c == '-':
			tokens = append(tokens, Token{Kind: TokenMinus, Text: "-", Pos: i})
			i++
		case c == '*':
			tokens = append(tokens, Token{Kind: TokenStar, Text: "*", Pos: i})
			i++
		case c == '/':
			tokens = append(tokens, Token{Kind: TokenSlash, Text: "/", Pos: i})
			i++
		case c == '(':
			tokens = append(tokens, Token{Kind: TokenLParen, Text: "(", Pos: i})
			i++
		case c == ')':
			tokens = append(tokens, Token{Kind: TokenRParen, Text: ")", Pos: i})
			i++
		case c == ',':
			tokens = append(tokens, Token{Kind: TokenComma, Text: ",", Pos: i})
			i++
		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	tokens = append(tokens, Token{Kind: TokenEOF, Pos: len(src)})
	return tokens, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
