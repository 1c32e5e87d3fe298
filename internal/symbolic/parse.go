package symbolic

import "fmt"

// Resolver maps a bare identifier to the expression it stands for.
// Species resolve to symbols, parameters to numeric literals. An
// identifier the resolver does not know fails the whole parse.
type Resolver interface {
	Resolve(name string) (Expr, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (Expr, error)

func (f ResolverFunc) Resolve(name string) (Expr, error) { return f(name) }

// Parse builds a simplified expression from a token stream. Resolution
// and tree construction happen in one pass over tokens produced by
// [Lex]; keeping the two stages separate keeps each testable on its own.
func Parse(tokens []Token, resolver Resolver) (Expr, error) {
	p := &parser{tokens: tokens, resolver: resolver}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != TokenEOF {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %q", tok.Text)}
	}
	return e.Simplify(), nil
}

// ParseString lexes and parses src in one call.
func ParseString(src string, resolver Resolver) (Expr, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, resolver)
}

type parser struct {
	tokens   []Token
	pos      int
	resolver Resolver
}

func (p *parser) peek() Token { return p.tokens[p.pos] }

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind TokenKind, what string) (Token, error) {
	tok := p.next()
	if tok.Kind != kind {
		return tok, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("expected %s, found %q", what, tok.Text)}
	}
	return tok, nil
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Expr{left}
	for {
		switch p.peek().Kind {
		case TokenPlus:
			p.next()
			t, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case TokenMinus:
			p.next()
			t, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			terms = append(terms, MulOf(N(-1), t))
		default:
			if len(terms) == 1 {
				return terms[0], nil
			}
			return AddOf(terms...), nil
		}
	}
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{left}
	for {
		switch p.peek().Kind {
		case TokenStar:
			p.next()
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case TokenSlash:
			p.next()
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, PowOf(f, N(-1)))
		default:
			if len(factors) == 1 {
				return factors[0], nil
			}
			return MulOf(factors...), nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().Kind == TokenMinus {
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.Kind {
	case TokenNumber:
		n, ok := numFromString(tok.Text)
		if !ok {
			return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("bad number %q", tok.Text)}
		}
		return n, nil
	case TokenLParen:
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case TokenIdent:
		if p.peek().Kind == TokenLParen {
			return p.parseCall(tok)
		}
		e, err := p.resolver.Resolve(tok.Text)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %q", tok.Text)}
	}
}

func (p *parser) parseCall(name Token) (Expr, error) {
	if name.Text != "max" {
		return nil, &SyntaxError{Pos: name.Pos, Msg: fmt.Sprintf("unknown function %q", name.Text)}
	}
	if _, err := p.expect(TokenLParen, "("); err != nil {
		return nil, err
	}
	a, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma, ","); err != nil {
		return nil, err
	}
	b, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen, ")"); err != nil {
		return nil, err
	}
	return MaxOf(a, b), nil
}
