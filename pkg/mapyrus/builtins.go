package mapyrus

import (
	"math"
	"math/rand"
	"regexp"
	"strings"
)

// BuiltinFunction is one function callable from expressions. The
// parser checks the argument count against MinArgs and MaxArgs; Exec
// is invoked at evaluation time with the already-evaluated arguments.
type BuiltinFunction struct {
	Name    string
	MinArgs int
	MaxArgs int
	Exec    func(env Environment, args []*Argument) (*Argument, error)
}

// Builtins maps function names to their implementations. Functions
// take at most four arguments.
var Builtins = map[string]*BuiltinFunction{}

func registerBuiltin(name string, minArgs, maxArgs int,
	exec func(Environment, []*Argument) (*Argument, error)) {
	Builtins[name] = &BuiltinFunction{name, minArgs, maxArgs, exec}
}

// a builtin over one numeric argument
func numericBuiltin(f func(float64) float64) func(Environment, []*Argument) (*Argument, error) {
	return func(_ Environment, args []*Argument) (*Argument, error) {
		v, err := args[0].NumericValue()
		if err != nil {
			return nil, err
		}
		result := f(v)
		if math.IsNaN(result) || math.IsInf(result, 0) {
			return nil, Err{reason: ErrEval, message: "numeric overflow"}
		}
		return NewNumericArgument(result), nil
	}
}

func init() {
	registerBuiltin("abs", 1, 1, numericBuiltin(math.Abs))
	registerBuiltin("ceil", 1, 1, numericBuiltin(math.Ceil))
	registerBuiltin("floor", 1, 1, numericBuiltin(math.Floor))
	registerBuiltin("round", 1, 1, numericBuiltin(math.Round))
	registerBuiltin("sqrt", 1, 1, numericBuiltin(math.Sqrt))
	registerBuiltin("log10", 1, 1, numericBuiltin(math.Log10))
	registerBuiltin("sin", 1, 1, numericBuiltin(math.Sin))
	registerBuiltin("cos", 1, 1, numericBuiltin(math.Cos))
	registerBuiltin("tan", 1, 1, numericBuiltin(math.Tan))

	registerBuiltin("pow", 2, 2, builtinPow)
	registerBuiltin("min", 2, 2, builtinMin)
	registerBuiltin("max", 2, 2, builtinMax)
	registerBuiltin("random", 1, 1, builtinRandom)

	registerBuiltin("length", 1, 1, builtinLength)
	registerBuiltin("chr", 1, 1, builtinChr)
	registerBuiltin("lower", 1, 1, builtinLower)
	registerBuiltin("upper", 1, 1, builtinUpper)
	registerBuiltin("trim", 1, 1, builtinTrim)
	registerBuiltin("substr", 2, 3, builtinSubstr)
	registerBuiltin("match", 2, 2, builtinMatch)
	registerBuiltin("replace", 3, 3, builtinReplace)
	registerBuiltin("split", 1, 2, builtinSplit)
	registerBuiltin("lpad", 2, 3, builtinLpad)
	registerBuiltin("rpad", 2, 3, builtinRpad)
}

func builtinPow(_ Environment, args []*Argument) (*Argument, error) {
	base, err := args[0].NumericValue()
	if err != nil {
		return nil, err
	}
	exp, err := args[1].NumericValue()
	if err != nil {
		return nil, err
	}
	result := math.Pow(base, exp)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return nil, Err{reason: ErrEval, message: "numeric overflow"}
	}
	return NewNumericArgument(result), nil
}

func builtinMin(_ Environment, args []*Argument) (*Argument, error) {
	a, err := args[0].NumericValue()
	if err != nil {
		return nil, err
	}
	b, err := args[1].NumericValue()
	if err != nil {
		return nil, err
	}
	return NewNumericArgument(math.Min(a, b)), nil
}

func builtinMax(_ Environment, args []*Argument) (*Argument, error) {
	a, err := args[0].NumericValue()
	if err != nil {
		return nil, err
	}
	b, err := args[1].NumericValue()
	if err != nil {
		return nil, err
	}
	return NewNumericArgument(math.Max(a, b)), nil
}

// random(n) returns a value in the range [0, n).
func builtinRandom(_ Environment, args []*Argument) (*Argument, error) {
	limit, err := args[0].NumericValue()
	if err != nil {
		return nil, err
	}
	return NewNumericArgument(rand.Float64() * limit), nil
}

// length returns the entry count of a hashmap, or the character
// count of anything else.
func builtinLength(_ Environment, args []*Argument) (*Argument, error) {
	if args[0].Type() == HashmapType {
		return NewNumericArgument(float64(args[0].HashMapSize())), nil
	}
	return NewNumericArgument(float64(len([]rune(args[0].StringValue())))), nil
}

func builtinChr(_ Environment, args []*Argument) (*Argument, error) {
	code, err := args[0].NumericValue()
	if err != nil {
		return nil, err
	}
	return NewStringArgument(string(rune(int(code)))), nil
}

func builtinLower(_ Environment, args []*Argument) (*Argument, error) {
	return NewStringArgument(strings.ToLower(args[0].StringValue())), nil
}

func builtinUpper(_ Environment, args []*Argument) (*Argument, error) {
	return NewStringArgument(strings.ToUpper(args[0].StringValue())), nil
}

func builtinTrim(_ Environment, args []*Argument) (*Argument, error) {
	return NewStringArgument(strings.TrimSpace(args[0].StringValue())), nil
}

// substr(s, start, length) extracts length characters beginning at
// the 1-based index start.
func builtinSubstr(_ Environment, args []*Argument) (*Argument, error) {
	s := []rune(args[0].StringValue())
	start, err := args[1].NumericValue()
	if err != nil {
		return nil, err
	}
	count := float64(len(s))
	if len(args) == 3 {
		count, err = args[2].NumericValue()
		if err != nil {
			return nil, err
		}
	}

	begin := int(start) - 1
	if begin < 0 {
		begin = 0
	}
	if begin >= len(s) || count <= 0 {
		return emptyString, nil
	}
	end := begin + int(count)
	if end > len(s) {
		end = len(s)
	}
	return NewStringArgument(string(s[begin:end])), nil
}

// match(s, regex) returns the 1-based index of the first match of
// regex in s, or 0 when there is no match.
func builtinMatch(_ Environment, args []*Argument) (*Argument, error) {
	re, err := regexp.Compile(args[1].StringValue())
	if err != nil {
		return nil, errEvalf("invalid regular expression: %s", args[1].StringValue())
	}
	loc := re.FindStringIndex(args[0].StringValue())
	if loc == nil {
		return NewNumericArgument(0), nil
	}
	return NewNumericArgument(float64(loc[0] + 1)), nil
}

func builtinReplace(_ Environment, args []*Argument) (*Argument, error) {
	re, err := regexp.Compile(args[1].StringValue())
	if err != nil {
		return nil, errEvalf("invalid regular expression: %s", args[1].StringValue())
	}
	return NewStringArgument(
		re.ReplaceAllString(args[0].StringValue(), args[2].StringValue())), nil
}

// split(s [, regex]) splits s on a regular expression (whitespace by
// default) and returns a hashmap with keys "1", "2", ... in order.
func builtinSplit(_ Environment, args []*Argument) (*Argument, error) {
	pattern := `[ \t]+`
	if len(args) == 2 {
		pattern = args[1].StringValue()
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errEvalf("invalid regular expression: %s", pattern)
	}

	result := NewHashmapArgument()
	i := 0
	for _, part := range re.Split(args[0].StringValue(), -1) {
		if part == "" {
			continue
		}
		i++
		result.SetHashMapEntry(formatNumber(float64(i)), NewStringArgument(part))
	}
	return result, nil
}

func builtinLpad(_ Environment, args []*Argument) (*Argument, error) {
	return pad(args, true)
}

func builtinRpad(_ Environment, args []*Argument) (*Argument, error) {
	return pad(args, false)
}

func pad(args []*Argument, left bool) (*Argument, error) {
	s := args[0].StringValue()
	width, err := args[1].NumericValue()
	if err != nil {
		return nil, err
	}
	fill := " "
	if len(args) == 3 && args[2].StringValue() != "" {
		fill = args[2].StringValue()
	}

	n := int(width)
	if n <= len([]rune(s)) {
		if n < 0 {
			n = 0
		}
		return NewStringArgument(string([]rune(s)[:n])), nil
	}
	padding := strings.Repeat(fill, (n-len([]rune(s)))/len([]rune(fill))+1)
	padding = string([]rune(padding)[:n-len([]rune(s))])
	if left {
		return NewStringArgument(padding + s), nil
	}
	return NewStringArgument(s + padding), nil
}
