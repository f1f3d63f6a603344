package sql

import "unicode"

// pExprTuple parses a comma-separated list of OR-expressions; a single
// element collapses to a plain expression instead of a 1-element tuple.
func pExprTuple(p *Parser, node *Node) {
	kids := []Node{{}}
	pExprOr(p, &kids[len(kids)-1])
	for pKeyword(p, ",") {
		kids = append(kids, Node{})
		pExprOr(p, &kids[len(kids)-1])
	}
	if len(kids) > 1 {
		node.Value.Type = NTTup
		node.Kids = kids
	} else {
		*node = kids[0]
	}
}

func pExprOr(p *Parser, node *Node) {
	pExprBinop(p, node, []string{"or"}, []NodeType{NTOr}, pExprAnd)
}

func pExprAnd(p *Parser, node *Node) {
	pExprBinop(p, node, []string{"and"}, []NodeType{NTAnd}, pExprNot)
}

// pExprBinop parses next, then repeatedly matches any of ops and folds
// a new left-associative binary node for the first one found.
func pExprBinop(p *Parser, node *Node, ops []string, types []NodeType, next func(*Parser, *Node)) {
	left := Node{}
	next(p, &left)
	for more := true; more; {
		more = false
		for i := range ops {
			if pKeyword(p, ops[i]) {
				parent := Node{Value: NodeValue{Type: types[i]}}
				parent.Kids = []Node{left, {}}
				next(p, &parent.Kids[1])
				left = parent
				more = true
				break
			}
		}
	}
	*node = left
}

func pExprNot(p *Parser, node *Node) {
	if pKeyword(p, "not") {
		node.Value.Type = NTNot
		node.Kids = []Node{{}}
		pExprCmp(p, &node.Kids[0])
		return
	}
	pExprCmp(p, node)
}

func pExprCmp(p *Parser, node *Node) {
	pExprBinop(p, node,
		[]string{"<=", ">=", "<", ">", "=", "!="},
		[]NodeType{NTLe, NTGe, NTLt, NTGt, NTEq, NTNe},
		pExprAdd)
}

func pExprAdd(p *Parser, node *Node) {
	pExprBinop(p, node, []string{"+", "-"}, []NodeType{NTAdd, NTSub}, pExprMul)
}

func pExprMul(p *Parser, node *Node) {
	pExprBinop(p, node, []string{"*", "/", "%"}, []NodeType{NTMul, NTDiv, NTMod}, pExprUnop)
}

func pExprUnop(p *Parser, node *Node) {
	if pKeyword(p, "-") {
		node.Value.Type = NTNeg
		node.Kids = []Node{{}}
		pExprAtom(p, &node.Kids[0])
		return
	}
	pExprAtom(p, node)
}

func pExprAtom(p *Parser, node *Node) {
	switch {
	case pKeyword(p, "("):
		pExprTuple(p, node)
		if !pKeyword(p, ")") {
			pErr(p, "unclosed parenthesis at byte %d", p.idx)
		}
	case pKeyword(p, "true"):
		node.Value = NodeValue{Type: NTBool, Bool: true}
	case pKeyword(p, "false"):
		node.Value = NodeValue{Type: NTBool, Bool: false}
	case pSym(p, node):
	case pNum(p, node):
	case pStr(p, node):
	default:
		pErr(p, "expected a symbol, number, or string at byte %d", p.idx)
	}
}

func pNum(p *Parser, node *Node) bool {
	p.skipSpace()
	start := p.idx
	if start >= len(p.input) || !unicode.IsDigit(rune(p.input[start])) {
		return false
	}
	for p.idx < len(p.input) && unicode.IsDigit(rune(p.input[p.idx])) {
		p.idx++
	}
	var num int64
	for _, ch := range p.input[start:p.idx] {
		num = num*10 + int64(ch-'0')
	}
	node.Value.Type = NTI64
	node.Value.I64 = num
	return true
}

// pStr parses a string literal delimited by either " or ', matching
// spec.md's examples which use single quotes.
func pStr(p *Parser, node *Node) bool {
	p.skipSpace()
	if p.idx >= len(p.input) {
		return false
	}
	quote := p.input[p.idx]
	if quote != '"' && quote != '\'' {
		return false
	}
	p.idx++
	start := p.idx
	for p.idx < len(p.input) && p.input[p.idx] != quote {
		if p.input[p.idx] == '\\' && p.idx+1 < len(p.input) {
			p.idx++
		}
		p.idx++
	}
	if p.idx >= len(p.input) {
		return false
	}
	node.Value.Type = NTStr
	node.Value.Str = p.input[start:p.idx]
	p.idx++
	return true
}

func pSym(p *Parser, node *Node) bool {
	p.skipSpace()
	end := p.idx
	if !(end < len(p.input) && isSymStart(p.input[end])) {
		return false
	}
	end++
	for end < len(p.input) && isSym(p.input[end]) {
		end++
	}
	if keywordSet[toLower(p.input[p.idx:end])] {
		return false
	}
	node.Value.Type = NTSym
	node.Value.Str = p.input[p.idx:end]
	p.idx = end
	return true
}

func toLower(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
