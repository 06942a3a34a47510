package mapyrus

import "strings"

// Parser reads statements from a preprocessed script. Parsing is a
// single pass; compound statements nest recursively.
type Parser struct {
	pre *Preprocessor
}

// NewParser returns a parser reading from pre.
func NewParser(pre *Preprocessor) *Parser {
	return &Parser{pre: pre}
}

// Parse reads statements until end of input and returns the
// statement tree.
func (p *Parser) Parse() ([]*Statement, error) {
	var statements []*Statement
	for {
		st, terminator, err := p.parseStatement(nil)
		if err != nil {
			return nil, err
		}
		if terminator != "" {
			return nil, errSyntaxf(p.pre.Location(), "unexpected '%s'", terminator)
		}
		if st == nil {
			return statements, nil
		}
		statements = append(statements, st)
	}
}

// skip blanks, comments, statement separators and empty lines,
// stopping at the first character that starts a statement
func (p *Parser) skipEmpty() error {
	for {
		c, err := p.pre.Read()
		if err != nil {
			return err
		}
		switch c {
		case ' ', '\t', '\r', '\n', ';':
		case '#':
			p.skipComment()
		default:
			p.pre.Unread(c)
			return nil
		}
	}
}

func (p *Parser) skipComment() {
	for {
		c, err := p.pre.Read()
		if err != nil || c == '\n' || c == EOF {
			p.pre.Unread(c)
			return
		}
	}
}

// consume the rest of the current statement line: blanks, an optional
// comment, then the newline or separator
func (p *Parser) endOfStatement() error {
	for {
		c, err := p.pre.Read()
		if err != nil {
			return err
		}
		switch c {
		case ' ', '\t', '\r':
		case '#':
			p.skipComment()
		case '\n', ';', EOF:
			return nil
		default:
			return errSyntaxf(p.pre.Location(), "unexpected character '%c'", c)
		}
	}
}

// parseStatement parses one statement. When one of the given
// terminator keywords is found instead, it is consumed and returned.
// At end of input both results are empty.
func (p *Parser) parseStatement(terminators []string) (*Statement, string, error) {
	if err := p.skipEmpty(); err != nil {
		return nil, "", err
	}

	c, err := p.pre.Read()
	if err != nil {
		return nil, "", err
	}
	if c == EOF {
		return nil, "", nil
	}
	p.pre.Unread(c)

	filename := p.pre.FileName()
	line := p.pre.LineNumber()

	word := readWordIf(p.pre)
	if word == "" {
		return nil, "", errSyntaxf(p.pre.Location(), "unexpected character '%c'", c)
	}
	keyword := strings.ToLower(word)

	for _, t := range terminators {
		if keyword == t {
			return nil, keyword, nil
		}
	}

	var st *Statement
	switch keyword {
	case "begin":
		st, err = p.parseBlock()
	case "if":
		st, err = p.parseConditional()
	case "while":
		st, err = p.parseWhile()
	case "repeat":
		st, err = p.parseRepeat()
	case "for":
		st, err = p.parseFor()
	case "end", "endif", "else", "elif", "elseif", "do", "done", "then", "in":
		return nil, "", errSyntaxf(p.pre.Location(), "unexpected '%s'", keyword)
	default:
		st, err = p.parseSimple(word, keyword)
	}
	if err != nil {
		return nil, "", err
	}
	st.filename = filename
	st.line = line
	return st, "", nil
}

// parseBody parses statements until one of the terminator keywords,
// returning the statements and the terminator found.
func (p *Parser) parseBody(terminators ...string) ([]*Statement, string, error) {
	var body []*Statement
	for {
		st, terminator, err := p.parseBody1(terminators)
		if err != nil {
			return nil, "", err
		}
		if terminator != "" {
			return body, terminator, nil
		}
		body = append(body, st)
	}
}

func (p *Parser) parseBody1(terminators []string) (*Statement, string, error) {
	st, terminator, err := p.parseStatement(terminators)
	if err != nil {
		return nil, "", err
	}
	if terminator != "" {
		return nil, terminator, nil
	}
	if st == nil {
		return nil, "", errSyntaxf(p.pre.Location(),
			"unexpected end of file, expected '%s'", terminators[len(terminators)-1])
	}
	return st, "", nil
}

// begin name param1, param2 ... end
func (p *Parser) parseBlock() (*Statement, error) {
	skipBlanks(p.pre)
	name := readWordIf(p.pre)
	if name == "" {
		return nil, errSyntaxf(p.pre.Location(), "missing procedure name after begin")
	}

	var params []string
	for {
		skipBlanks(p.pre)
		c, err := p.pre.Read()
		if err != nil {
			return nil, err
		}
		if c == ',' {
			continue
		}
		p.pre.Unread(c)
		if c == '\n' || c == ';' || c == '#' || c == EOF {
			break
		}
		param := readWordIf(p.pre)
		if param == "" {
			return nil, errSyntaxf(p.pre.Location(),
				"invalid parameter name in procedure %s", name)
		}
		params = append(params, param)
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}

	body, _, err := p.parseBody("end")
	if err != nil {
		return nil, err
	}
	return &Statement{
		stype:     BlockStatement,
		blockName: strings.ToLower(name),
		params:    params,
		body:      body,
	}, nil
}

// if test then ... elseif ... else ... endif
func (p *Parser) parseConditional() (*Statement, error) {
	test, err := ParseExpression(p.pre)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}

	thenBody, terminator, err := p.parseBody("elif", "elseif", "else", "endif")
	if err != nil {
		return nil, err
	}

	st := &Statement{stype: ConditionalStatement, test: test, thenBody: thenBody}
	switch terminator {
	case "elif", "elseif":
		// a chained test is a nested conditional in the else branch
		nested, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		nested.filename = p.pre.FileName()
		nested.line = p.pre.LineNumber()
		st.elseBody = []*Statement{nested}
	case "else":
		st.elseBody, _, err = p.parseBody("endif")
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// while test do ... done
func (p *Parser) parseWhile() (*Statement, error) {
	test, err := ParseExpression(p.pre)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, _, err := p.parseBody("done")
	if err != nil {
		return nil, err
	}
	return &Statement{stype: WhileStatement, test: test, body: body}, nil
}

// repeat count do ... done
func (p *Parser) parseRepeat() (*Statement, error) {
	test, err := ParseExpression(p.pre)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, _, err := p.parseBody("done")
	if err != nil {
		return nil, err
	}
	return &Statement{stype: RepeatStatement, test: test, body: body}, nil
}

// for var in hashmap do ... done
func (p *Parser) parseFor() (*Statement, error) {
	loopVar, err := ParseExpression(p.pre)
	if err != nil {
		return nil, err
	}
	if loopVar.root.op != opLeaf || loopVar.root.leaf.Type() != VariableType {
		return nil, errSyntaxf(p.pre.Location(), "invalid variable in for loop")
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	loopSet, err := ParseExpression(p.pre)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, _, err := p.parseBody("done")
	if err != nil {
		return nil, err
	}
	return &Statement{
		stype:   ForStatement,
		loopVar: loopVar,
		loopSet: loopSet,
		body:    body,
	}, nil
}

func (p *Parser) expectKeyword(keyword string) error {
	skipBlanks(p.pre)
	word := readWordIf(p.pre)
	if strings.ToLower(word) != keyword {
		return errSyntaxf(p.pre.Location(), "expected '%s'", keyword)
	}
	return nil
}

// a leaf command, or a call to a user-defined procedure
func (p *Parser) parseSimple(word, keyword string) (*Statement, error) {
	st := &Statement{}
	if stype, ok := statementKeywords[keyword]; ok {
		st.stype = stype
	} else {
		// resolved against the procedures defined when it runs
		st.stype = CallStatement
		st.blockName = keyword
	}

	// arguments up to the end of the line
	skipBlanks(p.pre)
	c, err := p.pre.Read()
	if err != nil {
		return nil, err
	}
	p.pre.Unread(c)
	if c == '\n' || c == ';' || c == '#' || c == EOF {
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		return st, nil
	}

	for {
		expr, err := ParseExpression(p.pre)
		if err != nil {
			return nil, err
		}
		st.args = append(st.args, expr)

		skipBlanks(p.pre)
		c, err := p.pre.Read()
		if err != nil {
			return nil, err
		}
		if c == ',' {
			continue
		}
		p.pre.Unread(c)
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		return st, nil
	}
}
