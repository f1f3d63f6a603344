package sql

import (
	"fmt"
	"strings"
	"unicode"
)

// Parser holds the combinator parser's cursor over the input and the
// first error encountered, exactly the shape query-parser's functions
// already assume (Parser.input/idx/err) without ever declaring it.
type Parser struct {
	input []byte
	idx   int
	err   error
}

// reserved words: never matched as a bare symbol by pSym/pMustSym.
var keywordSet = map[string]bool{
	"from": true, "index": true, "filter": true, "limit": true, "offset": true, "by": true,
	"and": true, "or": true, "not": true, "as": true,
	"select": true, "insert": true, "into": true, "values": true,
	"replace": true, "upsert": true, "delete": true, "update": true, "set": true,
	"create": true, "table": true, "primary": true, "key": true,
	"true": true, "false": true,
}

func (p *Parser) skipSpace() {
	for p.idx < len(p.input) && unicode.IsSpace(rune(p.input[p.idx])) {
		p.idx++
	}
}

func isSym(ch byte) bool {
	r := rune(ch)
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

func isSymStart(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_' || ch == '@'
}

// pKeyword matches kwds in sequence, case-insensitively, each separated
// only by whitespace. A keyword ending in an identifier character must
// not be followed by another one (so "index" does not match the start
// of "indexes"); operator keywords get no such check, so "<" does match
// the start of "<=" and pExprCmp tries the longer operators first.
func pKeyword(p *Parser, kwds ...string) bool {
	save := p.idx
	for _, kw := range kwds {
		p.skipSpace()
		end := p.idx + len(kw)
		if end > len(p.input) {
			p.idx = save
			return false
		}
		ok := strings.EqualFold(string(p.input[p.idx:end]), kw)
		if ok && isSym(kw[len(kw)-1]) && end < len(p.input) {
			ok = !isSym(p.input[end])
		}
		if !ok {
			p.idx = save
			return false
		}
		p.idx += len(kw)
	}
	return true
}

func pErr(p *Parser, format string, args ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

// pMustSym parses an identifier, failing if it's a reserved keyword.
func pMustSym(p *Parser) string {
	p.skipSpace()
	end := p.idx
	if !(end < len(p.input) && isSymStart(p.input[end])) {
		pErr(p, "expected a name at byte %d", p.idx)
		return ""
	}
	end++
	for end < len(p.input) && isSym(p.input[end]) {
		end++
	}
	name := string(p.input[p.idx:end])
	if keywordSet[strings.ToLower(name)] {
		pErr(p, "keyword %q not allowed as a name", name)
		return ""
	}
	p.idx = end
	return name
}

// pSymList parses a comma-separated list of names, e.g. the column
// list inside PRIMARY KEY(...) or INDEX(...).
func pSymList(p *Parser) []string {
	var names []string
	for {
		names = append(names, pMustSym(p))
		if p.err != nil {
			return names
		}
		if !pKeyword(p, ",") {
			break
		}
	}
	return names
}
