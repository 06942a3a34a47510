package mapyrus

import (
	"math"
	"strconv"
	"strings"
)

// Two numbers closer than this compare as equal with the ==, !=, <=
// and >= operators. Strict < and > exclude the band.
const numericEpsilon = 1e-10

func equalsEpsilon(a, b float64) bool {
	return math.Abs(a-b) <= numericEpsilon
}

// Environment resolves and defines variables during expression
// evaluation. ContextStack is the interpreter's implementation.
type Environment interface {
	// GetVariable returns the value of a variable, or nil when it
	// is not defined.
	GetVariable(name string) *Argument
	// DefineVariable binds a variable in the innermost scope.
	DefineVariable(name string, value *Argument)
	// DefineHashMapEntry sets one entry of a hashmap variable in the
	// innermost scope, creating the hashmap if the variable is not
	// yet defined.
	DefineHashMapEntry(name, key string, value *Argument)
}

type exprOp int

const (
	opLeaf exprOp = iota
	opAdd
	opSubtract
	opMultiply
	opDivide
	opModulo
	opConcat
	opRepeat
	opNegate
	opEqual
	opNotEqual
	opLess
	opLessEqual
	opGreater
	opGreaterEqual
	opLexicalEqual
	opLexicalNotEqual
	opLexicalLess
	opLexicalLessEqual
	opLexicalGreater
	opLexicalGreaterEqual
	opAnd
	opOr
	opNot
	opAssign
	opConditional
	opIndex
	opFunction
)

// ExprNode is one node of a parsed expression tree: a literal or
// variable leaf, an operator over child nodes, a conditional, a
// hashmap index, an assignment, or a builtin function call.
type ExprNode struct {
	op                 exprOp
	leaf               *Argument
	left, right, third *ExprNode
	fn                 *BuiltinFunction
	args               []*ExprNode
}

// Expression is a parsed, immutable expression tree. Trees may be
// shared read-only between interpreter instances.
type Expression struct {
	root *ExprNode
}

// ParseExpression parses one expression from the preprocessor,
// stopping before the first character that cannot extend it.
func ParseExpression(p *Preprocessor) (*Expression, error) {
	root, err := parseOr(p)
	if err != nil {
		return nil, err
	}
	return &Expression{root: root}, nil
}

// IsAssignment reports whether the expression's outermost operation
// assigns to a variable or hashmap entry.
func (e *Expression) IsAssignment() bool {
	return e.root.op == opAssign
}

// parser helpers

func skipBlanks(p *Preprocessor) {
	for {
		c, err := p.Read()
		if err != nil {
			return
		}
		if c != ' ' && c != '\t' {
			p.Unread(c)
			return
		}
	}
}

func isWordStart(c rune) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c rune) bool {
	return isWordStart(c) || c == '.' || (c >= '0' && c <= '9')
}

// readWordIf consumes and returns an identifier or keyword if one
// starts here, otherwise consumes nothing.
func readWordIf(p *Preprocessor) string {
	c, err := p.Read()
	if err != nil {
		return ""
	}
	if !isWordStart(c) {
		p.Unread(c)
		return ""
	}
	word := []rune{c}
	for {
		c, err = p.Read()
		if err != nil || !isWordChar(c) {
			p.Unread(c)
			break
		}
		word = append(word, c)
	}
	return string(word)
}

func unreadWord(p *Preprocessor, word string) {
	runes := []rune(word)
	for i := len(runes) - 1; i >= 0; i-- {
		p.Unread(runes[i])
	}
}

// grammar, loosest to tightest binding

func parseOr(p *Preprocessor) (*ExprNode, error) {
	left, err := parseAnd(p)
	if err != nil {
		return nil, err
	}
	for {
		skipBlanks(p)
		word := readWordIf(p)
		if word != "or" {
			unreadWord(p, word)
			return left, nil
		}
		right, err := parseAnd(p)
		if err != nil {
			return nil, err
		}
		left = &ExprNode{op: opOr, left: left, right: right}
	}
}

func parseAnd(p *Preprocessor) (*ExprNode, error) {
	left, err := parseNot(p)
	if err != nil {
		return nil, err
	}
	for {
		skipBlanks(p)
		word := readWordIf(p)
		if word != "and" {
			unreadWord(p, word)
			return left, nil
		}
		right, err := parseNot(p)
		if err != nil {
			return nil, err
		}
		left = &ExprNode{op: opAnd, left: left, right: right}
	}
}

func parseNot(p *Preprocessor) (*ExprNode, error) {
	skipBlanks(p)
	word := readWordIf(p)
	if word == "not" {
		operand, err := parseNot(p)
		if err != nil {
			return nil, err
		}
		return &ExprNode{op: opNot, left: operand}, nil
	}
	unreadWord(p, word)
	return parseAssignment(p)
}

func parseAssignment(p *Preprocessor) (*ExprNode, error) {
	left, err := parseConditional(p)
	if err != nil {
		return nil, err
	}

	skipBlanks(p)
	c, err := p.Read()
	if err != nil {
		return nil, err
	}
	if c != '=' {
		p.Unread(c)
		return left, nil
	}
	c2, err := p.Read()
	if err != nil {
		return nil, err
	}
	if c2 == '=' {
		// an equality the comparison level will not see again;
		// should not happen, but do not mis-parse it as assignment
		p.Unread(c2)
		p.Unread(c)
		return left, nil
	}
	p.Unread(c2)

	if !isAssignmentTarget(left) {
		return nil, errSyntaxf(p.Location(), "invalid target for assignment")
	}
	right, err := parseConditional(p)
	if err != nil {
		return nil, err
	}
	return &ExprNode{op: opAssign, left: left, right: right}, nil
}

// an assignment target must be a variable, or one hashmap index over
// a variable
func isAssignmentTarget(n *ExprNode) bool {
	if n.op == opLeaf {
		return n.leaf.Type() == VariableType
	}
	return n.op == opIndex &&
		n.left.op == opLeaf && n.left.leaf.Type() == VariableType
}

func parseConditional(p *Preprocessor) (*ExprNode, error) {
	test, err := parseComparison(p)
	if err != nil {
		return nil, err
	}

	skipBlanks(p)
	c, err := p.Read()
	if err != nil {
		return nil, err
	}
	if c != '?' {
		p.Unread(c)
		return test, nil
	}

	thenValue, err := parseOr(p)
	if err != nil {
		return nil, err
	}
	skipBlanks(p)
	c, err = p.Read()
	if err != nil {
		return nil, err
	}
	if c != ':' {
		return nil, errSyntaxf(p.Location(), "expected ':' in conditional expression")
	}
	elseValue, err := parseOr(p)
	if err != nil {
		return nil, err
	}
	return &ExprNode{op: opConditional, left: test, right: thenValue, third: elseValue}, nil
}

var lexicalOps = map[string]exprOp{
	"lt": opLexicalLess,
	"le": opLexicalLessEqual,
	"gt": opLexicalGreater,
	"ge": opLexicalGreaterEqual,
	"eq": opLexicalEqual,
	"ne": opLexicalNotEqual,
}

func parseComparison(p *Preprocessor) (*ExprNode, error) {
	left, err := parseExpressionAdd(p)
	if err != nil {
		return nil, err
	}

	for {
		skipBlanks(p)
		op, ok, err := readComparisonOp(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := parseExpressionAdd(p)
		if err != nil {
			return nil, err
		}
		left = &ExprNode{op: op, left: left, right: right}
	}
}

func readComparisonOp(p *Preprocessor) (exprOp, bool, error) {
	c, err := p.Read()
	if err != nil {
		return 0, false, err
	}
	switch c {
	case '<', '>':
		next, err := p.Read()
		if err != nil {
			return 0, false, err
		}
		if next == '=' {
			if c == '<' {
				return opLessEqual, true, nil
			}
			return opGreaterEqual, true, nil
		}
		p.Unread(next)
		if c == '<' {
			return opLess, true, nil
		}
		return opGreater, true, nil
	case '=':
		next, err := p.Read()
		if err != nil {
			return 0, false, err
		}
		if next == '=' {
			return opEqual, true, nil
		}
		// single '=' is assignment, handled further out
		p.Unread(next)
		p.Unread(c)
		return 0, false, nil
	case '!':
		next, err := p.Read()
		if err != nil {
			return 0, false, err
		}
		if next == '=' {
			return opNotEqual, true, nil
		}
		return 0, false, errSyntaxf(p.Location(), "unexpected character '!'")
	}
	p.Unread(c)

	word := readWordIf(p)
	if op, ok := lexicalOps[word]; ok {
		return op, true, nil
	}
	unreadWord(p, word)
	return 0, false, nil
}

func parseExpressionAdd(p *Preprocessor) (*ExprNode, error) {
	left, err := parseTerm(p)
	if err != nil {
		return nil, err
	}
	for {
		skipBlanks(p)
		c, err := p.Read()
		if err != nil {
			return nil, err
		}
		var op exprOp
		switch c {
		case '+':
			op = opAdd
		case '-':
			op = opSubtract
		case '.':
			op = opConcat
		default:
			p.Unread(c)
			return left, nil
		}
		right, err := parseTerm(p)
		if err != nil {
			return nil, err
		}
		left = &ExprNode{op: op, left: left, right: right}
	}
}

func parseTerm(p *Preprocessor) (*ExprNode, error) {
	left, err := parseUnary(p)
	if err != nil {
		return nil, err
	}
	for {
		skipBlanks(p)
		c, err := p.Read()
		if err != nil {
			return nil, err
		}
		var op exprOp
		switch c {
		case '*':
			op = opMultiply
		case '/':
			op = opDivide
		case '%':
			op = opModulo
		default:
			p.Unread(c)
			// the string repeat operator is the bare word "x"
			word := readWordIf(p)
			if word != "x" {
				unreadWord(p, word)
				return left, nil
			}
			op = opRepeat
		}
		right, err := parseUnary(p)
		if err != nil {
			return nil, err
		}
		left = &ExprNode{op: op, left: left, right: right}
	}
}

func parseUnary(p *Preprocessor) (*ExprNode, error) {
	skipBlanks(p)
	c, err := p.Read()
	if err != nil {
		return nil, err
	}
	switch c {
	case '-':
		operand, err := parseUnary(p)
		if err != nil {
			return nil, err
		}
		return &ExprNode{op: opNegate, left: operand}, nil
	case '+':
		return parseUnary(p)
	}
	p.Unread(c)
	return parseIndex(p)
}

func parseIndex(p *Preprocessor) (*ExprNode, error) {
	node, err := parsePrimary(p)
	if err != nil {
		return nil, err
	}
	for {
		skipBlanks(p)
		c, err := p.Read()
		if err != nil {
			return nil, err
		}
		if c != '[' {
			p.Unread(c)
			return node, nil
		}
		key, err := parseOr(p)
		if err != nil {
			return nil, err
		}
		skipBlanks(p)
		c, err = p.Read()
		if err != nil {
			return nil, err
		}
		if c != ']' {
			return nil, errSyntaxf(p.Location(), "unmatched '[' in expression")
		}
		node = &ExprNode{op: opIndex, left: node, right: key}
	}
}

func parsePrimary(p *Preprocessor) (*ExprNode, error) {
	skipBlanks(p)
	c, err := p.Read()
	if err != nil {
		return nil, err
	}

	switch {
	case c >= '0' && c <= '9':
		p.Unread(c)
		return parseNumber(p)
	case c == '\'' || c == '"':
		return parseStringLiteral(p, c)
	case c == '(':
		node, err := parseOr(p)
		if err != nil {
			return nil, err
		}
		skipBlanks(p)
		c, err = p.Read()
		if err != nil {
			return nil, err
		}
		if c != ')' {
			return nil, errSyntaxf(p.Location(), "unmatched '(' in expression")
		}
		return node, nil
	case isWordStart(c):
		p.Unread(c)
		word := readWordIf(p)
		next, err := p.Read()
		if err != nil {
			return nil, err
		}
		if next == '(' {
			return parseFunctionCall(p, word)
		}
		p.Unread(next)
		return &ExprNode{op: opLeaf, leaf: NewVariableArgument(word)}, nil
	case c == EOF:
		return nil, errSyntaxf(p.Location(), "unexpected end of file in expression")
	}
	return nil, errSyntaxf(p.Location(), "unexpected character '%c' in expression", c)
}

func parseNumber(p *Preprocessor) (*ExprNode, error) {
	var sb strings.Builder
	readDigits := func() {
		for {
			c, err := p.Read()
			if err != nil || c < '0' || c > '9' {
				p.Unread(c)
				return
			}
			sb.WriteRune(c)
		}
	}

	readDigits()
	c, _ := p.Read()
	if c == '.' {
		// only part of the number if a digit follows; otherwise it
		// is the concatenation operator
		next, _ := p.Read()
		p.Unread(next)
		if next >= '0' && next <= '9' {
			sb.WriteRune('.')
			readDigits()
		} else {
			p.Unread(c)
		}
		c, _ = p.Read()
	}
	if c == 'e' || c == 'E' {
		sb.WriteRune('e')
		sign, _ := p.Read()
		if sign == '+' || sign == '-' {
			sb.WriteRune(sign)
		} else {
			p.Unread(sign)
		}
		mark := sb.Len()
		readDigits()
		if sb.Len() == mark {
			return nil, errSyntaxf(p.Location(), "invalid number '%s'", sb.String())
		}
	} else {
		p.Unread(c)
	}

	v, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil {
		return nil, errSyntaxf(p.Location(), "invalid number '%s'", sb.String())
	}
	return &ExprNode{op: opLeaf, leaf: NewNumericArgument(v)}, nil
}

func parseStringLiteral(p *Preprocessor, quote rune) (*ExprNode, error) {
	var sb strings.Builder
	for {
		c, err := p.Read()
		if err != nil {
			return nil, err
		}
		switch c {
		case quote:
			return &ExprNode{op: opLeaf, leaf: NewStringArgument(sb.String())}, nil
		case EOF, '\n':
			return nil, errSyntaxf(p.Location(), "unterminated string")
		case '\r':
			// dropped
		case '\\':
			esc, err := p.Read()
			if err != nil {
				return nil, err
			}
			switch {
			case esc == 'n':
				sb.WriteRune('\n')
			case esc == 't':
				sb.WriteRune('\t')
			case esc == '\\':
				sb.WriteRune('\\')
			case esc >= '0' && esc <= '7':
				val := int(esc - '0')
				for i := 0; i < 2; i++ {
					d, _ := p.Read()
					if d < '0' || d > '7' {
						p.Unread(d)
						break
					}
					val = val*8 + int(d-'0')
				}
				sb.WriteRune(rune(val))
			case esc == EOF:
				return nil, errSyntaxf(p.Location(), "unterminated string")
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(c)
		}
	}
}

func parseFunctionCall(p *Preprocessor, name string) (*ExprNode, error) {
	fn, ok := Builtins[name]
	if !ok {
		return nil, errSyntaxf(p.Location(), "unknown function %s", name)
	}

	var args []*ExprNode
	skipBlanks(p)
	c, err := p.Read()
	if err != nil {
		return nil, err
	}
	if c != ')' {
		p.Unread(c)
		for {
			arg, err := parseOr(p)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			skipBlanks(p)
			c, err = p.Read()
			if err != nil {
				return nil, err
			}
			if c == ')' {
				break
			}
			if c != ',' {
				return nil, errSyntaxf(p.Location(),
					"expected ',' or ')' in call to %s", name)
			}
		}
	}

	if len(args) < fn.MinArgs || len(args) > fn.MaxArgs {
		return nil, errSyntaxf(p.Location(),
			"wrong number of arguments for %s", name)
	}
	return &ExprNode{op: opFunction, fn: fn, args: args}, nil
}

// Evaluate walks the expression tree, resolving variables through
// env, and returns the resulting value.
func (e *Expression) Evaluate(env Environment) (*Argument, error) {
	return evalNode(e.root, env)
}

func evalNode(n *ExprNode, env Environment) (*Argument, error) {
	switch n.op {
	case opLeaf:
		if n.leaf.Type() == VariableType {
			if v := env.GetVariable(n.leaf.VariableName()); v != nil {
				return v, nil
			}
			return emptyString, nil
		}
		return n.leaf, nil

	case opAdd, opSubtract, opMultiply, opDivide, opModulo:
		return evalArithmetic(n, env)

	case opNegate:
		v, err := evalNumeric(n.left, env)
		if err != nil {
			return nil, err
		}
		return NewNumericArgument(-v), nil

	case opConcat:
		left, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		right, err := evalNode(n.right, env)
		if err != nil {
			return nil, err
		}
		return NewStringArgument(left.StringValue() + right.StringValue()), nil

	case opRepeat:
		left, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		count, err := evalNumeric(n.right, env)
		if err != nil {
			return nil, err
		}
		times := int(math.Floor(count))
		if times < 0 {
			times = 0
		}
		return NewStringArgument(strings.Repeat(left.StringValue(), times)), nil

	case opEqual, opNotEqual, opLess, opLessEqual, opGreater, opGreaterEqual:
		return evalComparison(n, env)

	case opLexicalEqual, opLexicalNotEqual, opLexicalLess,
		opLexicalLessEqual, opLexicalGreater, opLexicalGreaterEqual:
		left, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		right, err := evalNode(n.right, env)
		if err != nil {
			return nil, err
		}
		return boolArgument(lexicalResult(n.op, left.StringValue(), right.StringValue())), nil

	case opAnd:
		left, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		if !left.TruthValue() {
			return boolArgument(false), nil
		}
		right, err := evalNode(n.right, env)
		if err != nil {
			return nil, err
		}
		return boolArgument(right.TruthValue()), nil

	case opOr:
		left, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		if left.TruthValue() {
			return boolArgument(true), nil
		}
		right, err := evalNode(n.right, env)
		if err != nil {
			return nil, err
		}
		return boolArgument(right.TruthValue()), nil

	case opNot:
		v, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		return boolArgument(!v.TruthValue()), nil

	case opConditional:
		test, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		if test.TruthValue() {
			return evalNode(n.right, env)
		}
		return evalNode(n.third, env)

	case opAssign:
		value, err := evalNode(n.right, env)
		if err != nil {
			return nil, err
		}
		target := n.left
		if target.op == opLeaf {
			env.DefineVariable(target.leaf.VariableName(), value)
		} else {
			key, err := evalNode(target.right, env)
			if err != nil {
				return nil, err
			}
			env.DefineHashMapEntry(target.left.leaf.VariableName(),
				key.StringValue(), value)
		}
		return value, nil

	case opIndex:
		base, err := evalNode(n.left, env)
		if err != nil {
			return nil, err
		}
		key, err := evalNode(n.right, env)
		if err != nil {
			return nil, err
		}
		// indexing anything that is not a hashmap quietly yields
		// the empty string
		return base.HashMapEntry(key.StringValue()), nil

	case opFunction:
		args := make([]*Argument, len(n.args))
		for i, argNode := range n.args {
			v, err := evalNode(argNode, env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		result, err := n.fn.Exec(env, args)
		if err != nil {
			if e, ok := err.(Err); ok {
				return nil, Err{reason: e.reason, message: n.fn.Name + ": " + e.message, located: e.located}
			}
			return nil, errEvalf("%s: %s", n.fn.Name, err)
		}
		return result, nil
	}

	return nil, Err{reason: ErrAssert, message: "unknown expression operator"}
}

func evalNumeric(n *ExprNode, env Environment) (float64, error) {
	v, err := evalNode(n, env)
	if err != nil {
		return 0, err
	}
	return v.NumericValue()
}

func evalArithmetic(n *ExprNode, env Environment) (*Argument, error) {
	left, err := evalNumeric(n.left, env)
	if err != nil {
		return nil, err
	}
	right, err := evalNumeric(n.right, env)
	if err != nil {
		return nil, err
	}

	var result float64
	switch n.op {
	case opAdd:
		result = left + right
	case opSubtract:
		result = left - right
	case opMultiply:
		result = left * right
	case opDivide:
		result = left / right
	case opModulo:
		result = math.Mod(left, right)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return nil, Err{reason: ErrEval, message: "numeric overflow"}
	}
	return NewNumericArgument(result), nil
}

// Numeric comparison when both sides convert to numbers, otherwise
// falls back to lexical comparison.
func evalComparison(n *ExprNode, env Environment) (*Argument, error) {
	left, err := evalNode(n.left, env)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(n.right, env)
	if err != nil {
		return nil, err
	}

	a, errA := left.NumericValue()
	b, errB := right.NumericValue()
	if errA != nil || errB != nil {
		return boolArgument(lexicalResult(lexicalOpFor(n.op),
			left.StringValue(), right.StringValue())), nil
	}

	var result bool
	switch n.op {
	case opEqual:
		result = equalsEpsilon(a, b)
	case opNotEqual:
		result = !equalsEpsilon(a, b)
	case opLess:
		result = a < b && !equalsEpsilon(a, b)
	case opLessEqual:
		result = a < b || equalsEpsilon(a, b)
	case opGreater:
		result = a > b && !equalsEpsilon(a, b)
	case opGreaterEqual:
		result = a > b || equalsEpsilon(a, b)
	}
	return boolArgument(result), nil
}

func lexicalOpFor(op exprOp) exprOp {
	switch op {
	case opEqual:
		return opLexicalEqual
	case opNotEqual:
		return opLexicalNotEqual
	case opLess:
		return opLexicalLess
	case opLessEqual:
		return opLexicalLessEqual
	case opGreater:
		return opLexicalGreater
	}
	return opLexicalGreaterEqual
}

func lexicalResult(op exprOp, a, b string) bool {
	switch op {
	case opLexicalEqual:
		return a == b
	case opLexicalNotEqual:
		return a != b
	case opLexicalLess:
		return a < b
	case opLexicalLessEqual:
		return a <= b
	case opLexicalGreater:
		return a > b
	}
	return a >= b
}

var trueArgument = NewNumericArgument(1)
var falseArgument = NewNumericArgument(0)

func boolArgument(b bool) *Argument {
	if b {
		return trueArgument
	}
	return falseArgument
}
