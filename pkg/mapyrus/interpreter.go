package mapyrus

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// SinkFactory creates the output sink for a newpage statement. The
// format names the output driver; options carries driver settings as
// a free-form string.
type SinkFactory func(format string, width, height float64, options string) (OutputSink, error)

// Interpreter runs parsed statements against a context stack. One
// interpreter serves one script; parsed statements themselves may be
// shared between interpreters.
type Interpreter struct {
	context    *ContextStack
	procedures map[string]*Statement
	stdout     io.Writer
	newSink    SinkFactory
}

// NewInterpreter returns an interpreter printing to stdout and
// opening output pages through newSink.
func NewInterpreter(stdout io.Writer, newSink SinkFactory) *Interpreter {
	return &Interpreter{
		context:    NewContextStack(),
		procedures: make(map[string]*Statement),
		stdout:     stdout,
		newSink:    newSink,
	}
}

// Context returns the interpreter's context stack, for inspecting
// variables or providing host configuration.
func (ip *Interpreter) Context() *ContextStack {
	return ip.context
}

// InterpretFile parses and runs the script file at path.
func (ip *Interpreter) InterpretFile(path string) error {
	pre, err := NewPreprocessorFromFile(path)
	if err != nil {
		return err
	}
	return ip.interpretPreprocessed(pre)
}

// InterpretReader parses and runs a script from in, with name used in
// error messages.
func (ip *Interpreter) InterpretReader(in io.Reader, name string) error {
	return ip.interpretPreprocessed(NewPreprocessor(in, name))
}

func (ip *Interpreter) interpretPreprocessed(pre *Preprocessor) error {
	statements, err := NewParser(pre).Parse()
	if err != nil {
		return err
	}
	return ip.Interpret(statements)
}

// Interpret runs a list of parsed statements. Sinks opened by the
// script are closed when interpretation ends, even after an error.
func (ip *Interpreter) Interpret(statements []*Statement) error {
	err := ip.executeBody(statements)
	if closeErr := ip.context.CloseAll(); err == nil {
		err = closeErr
	}
	return err
}

func (ip *Interpreter) executeBody(statements []*Statement) error {
	for _, st := range statements {
		if err := ip.execute(st); err != nil {
			return err
		}
	}
	return nil
}

// execute runs one statement, tagging any error with the statement's
// source location unless an inner statement already did.
func (ip *Interpreter) execute(st *Statement) error {
	err := ip.executeStatement(st)
	if err == nil {
		return nil
	}
	if e, ok := err.(Err); ok && !e.located {
		filename, line := st.Location()
		return Err{
			reason:  e.reason,
			message: fmt.Sprintf("%s:%d: %s", filename, line, e.message),
			located: true,
		}
	}
	return err
}

// statementNames maps statement types back to their keyword for error
// messages.
var statementNames = map[StatementType]string{}

func init() {
	for keyword, stype := range statementKeywords {
		if keyword == "colour" {
			continue
		}
		statementNames[stype] = keyword
	}
}

func statementName(stype StatementType) string {
	if name, ok := statementNames[stype]; ok {
		return name
	}
	return "statement"
}

// argument evaluation helpers

func (ip *Interpreter) evalArgs(st *Statement) ([]*Argument, error) {
	args := make([]*Argument, len(st.args))
	for i, expr := range st.args {
		v, err := expr.Evaluate(ip.context)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// numericArgs evaluates the statement's arguments as numbers,
// checking that between min and max of them were given.
func (ip *Interpreter) numericArgs(st *Statement, min, max int) ([]float64, error) {
	if len(st.args) < min || len(st.args) > max {
		return nil, errEvalf("wrong number of arguments for %s", statementName(st.stype))
	}
	values := make([]float64, len(st.args))
	for i, expr := range st.args {
		v, err := expr.Evaluate(ip.context)
		if err != nil {
			return nil, err
		}
		values[i], err = v.NumericValue()
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

func (ip *Interpreter) executeStatement(st *Statement) error {
	cs := ip.context
	switch st.stype {
	case BlockStatement:
		ip.procedures[st.blockName] = st
		return nil

	case ConditionalStatement:
		test, err := st.test.Evaluate(cs)
		if err != nil {
			return err
		}
		if test.TruthValue() {
			return ip.executeBody(st.thenBody)
		}
		return ip.executeBody(st.elseBody)

	case WhileStatement:
		for {
			test, err := st.test.Evaluate(cs)
			if err != nil {
				return err
			}
			if !test.TruthValue() {
				return nil
			}
			if err := ip.executeBody(st.body); err != nil {
				return err
			}
		}

	case RepeatStatement:
		count, err := st.test.Evaluate(cs)
		if err != nil {
			return err
		}
		n, err := count.NumericValue()
		if err != nil {
			return err
		}
		for i := 0; i < int(math.Floor(n)); i++ {
			if err := ip.executeBody(st.body); err != nil {
				return err
			}
		}
		return nil

	case ForStatement:
		return ip.executeFor(st)

	case CallStatement:
		return ip.executeCall(st)

	case LetStatement, LocalStatement:
		return ip.executeLet(st)

	case PrintStatement:
		args, err := ip.evalArgs(st)
		if err != nil {
			return err
		}
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = arg.StringValue()
		}
		fmt.Fprintln(ip.stdout, strings.Join(parts, " "))
		return nil

	case ColorStatement:
		return ip.executeColor(st)

	case LineStyleStatement:
		values, err := ip.numericArgs(st, 1, 1)
		if err != nil {
			return err
		}
		cs.SetLineWidth(values[0])
		return nil

	case FontStatement:
		args, err := ip.evalArgs(st)
		if err != nil {
			return err
		}
		if len(args) != 2 {
			return errEvalf("wrong number of arguments for font")
		}
		size, err := args[1].NumericValue()
		if err != nil {
			return err
		}
		cs.SetFont(args[0].StringValue(), size)
		return nil

	case JustifyStatement:
		args, err := ip.evalArgs(st)
		if err != nil {
			return err
		}
		if len(args) != 1 {
			return errEvalf("wrong number of arguments for justify")
		}
		cs.SetJustify(args[0].StringValue())
		return nil

	case ScaleStatement:
		values, err := ip.numericArgs(st, 1, 2)
		if err != nil {
			return err
		}
		if len(values) == 1 {
			cs.Scale(values[0], values[0])
		} else {
			cs.Scale(values[0], values[1])
		}
		return nil

	case RotateStatement:
		values, err := ip.numericArgs(st, 1, 1)
		if err != nil {
			return err
		}
		cs.Rotate(degreesToRadians(values[0]))
		return nil

	case TranslateStatement:
		values, err := ip.numericArgs(st, 2, 2)
		if err != nil {
			return err
		}
		cs.Translate(values[0], values[1])
		return nil

	case WorldsStatement:
		values, err := ip.numericArgs(st, 4, 4)
		if err != nil {
			return err
		}
		return cs.SetWorlds(values[0], values[1], values[2], values[3])

	case MoveStatement, DrawStatement:
		values, err := ip.numericArgs(st, 2, len(st.args))
		if err != nil {
			return err
		}
		if len(values)%2 != 0 {
			return errEvalf("unpaired coordinate in %s", statementName(st.stype))
		}
		for i := 0; i < len(values); i += 2 {
			if st.stype == MoveStatement {
				cs.MoveTo(values[i], values[i+1])
			} else {
				cs.LineTo(values[i], values[i+1])
			}
		}
		return nil

	case RDrawStatement:
		values, err := ip.numericArgs(st, 2, len(st.args))
		if err != nil {
			return err
		}
		if len(values)%2 != 0 {
			return errEvalf("unpaired coordinate in rdraw")
		}
		for i := 0; i < len(values); i += 2 {
			if err := cs.RDraw(values[i], values[i+1]); err != nil {
				return err
			}
		}
		return nil

	case ArcStatement:
		values, err := ip.numericArgs(st, 5, 5)
		if err != nil {
			return err
		}
		return cs.Arc(values[0], values[1], values[2], values[3], values[4])

	case BezierStatement:
		values, err := ip.numericArgs(st, 6, 6)
		if err != nil {
			return err
		}
		return cs.Bezier(values[0], values[1], values[2],
			values[3], values[4], values[5])

	case SineWaveStatement:
		values, err := ip.numericArgs(st, 4, 4)
		if err != nil {
			return err
		}
		return cs.SineWave(values[0], values[1], values[2], values[3])

	case BoxStatement:
		values, err := ip.numericArgs(st, 4, 4)
		if err != nil {
			return err
		}
		x1, y1 := math.Min(values[0], values[2]), math.Min(values[1], values[3])
		x2, y2 := math.Max(values[0], values[2]), math.Max(values[1], values[3])
		cs.MoveTo(x1, y1)
		cs.LineTo(x2, y1)
		cs.LineTo(x2, y2)
		cs.LineTo(x1, y2)
		cs.ClosePath()
		return nil

	case RoundedBoxStatement:
		values, err := ip.numericArgs(st, 4, 5)
		if err != nil {
			return err
		}
		return ip.roundedBox(values)

	case CircleStatement:
		values, err := ip.numericArgs(st, 3, 3)
		if err != nil {
			return err
		}
		ip.sampledEllipse(values[0], values[1], values[2], values[2])
		return nil

	case EllipseStatement:
		values, err := ip.numericArgs(st, 4, 4)
		if err != nil {
			return err
		}
		ip.sampledEllipse(values[0], values[1], values[2]/2, values[3]/2)
		return nil

	case HexagonStatement:
		values, err := ip.numericArgs(st, 3, 3)
		if err != nil {
			return err
		}
		ip.regularPolygon(6, values[0], values[1], values[2])
		return nil

	case PentagonStatement:
		values, err := ip.numericArgs(st, 3, 3)
		if err != nil {
			return err
		}
		ip.regularPolygon(5, values[0], values[1], values[2])
		return nil

	case TriangleStatement:
		values, err := ip.numericArgs(st, 3, 3)
		if err != nil {
			return err
		}
		ip.regularPolygon(3, values[0], values[1], values[2])
		return nil

	case StarStatement:
		values, err := ip.numericArgs(st, 4, 4)
		if err != nil {
			return err
		}
		return ip.star(values[0], values[1], values[2], int(values[3]))

	case WedgeStatement:
		values, err := ip.numericArgs(st, 5, 5)
		if err != nil {
			return err
		}
		ip.wedge(values[0], values[1], values[2], values[3], values[4])
		return nil

	case SpiralStatement:
		values, err := ip.numericArgs(st, 4, 5)
		if err != nil {
			return err
		}
		startAngle := 0.0
		if len(values) == 5 {
			startAngle = degreesToRadians(values[4])
		}
		ip.spiral(values[0], values[1], values[2], values[3], startAngle)
		return nil

	case AddPathStatement:
		return ip.executeAddPath(st)

	case ClearPathStatement:
		cs.ClearPath()
		return nil

	case ClosePathStatement:
		cs.ClosePath()
		return nil

	case SamplePathStatement:
		values, err := ip.numericArgs(st, 2, 2)
		if err != nil {
			return err
		}
		cs.SamplePath(values[0], values[1])
		return nil

	case StripePathStatement:
		values, err := ip.numericArgs(st, 2, 2)
		if err != nil {
			return err
		}
		cs.StripePath(values[0], degreesToRadians(values[1]))
		return nil

	case ShiftPathStatement:
		values, err := ip.numericArgs(st, 2, 2)
		if err != nil {
			return err
		}
		cs.ShiftPath(values[0], values[1])
		return nil

	case ReversePathStatement:
		cs.ReversePath()
		return nil

	case StrokeStatement:
		return cs.Stroke()

	case FillStatement:
		return cs.Fill()

	case ClipStatement:
		cs.ClipPath()
		return nil

	case NewPageStatement:
		return ip.executeNewPage(st)

	case EndPageStatement:
		return cs.CloseSink()
	}

	return errEvalf("%s is not supported", statementName(st.stype))
}

// let and local bind variables: let takes assignments, local takes
// bare names to declare in the current scope, shadowing any outer
// binding.
func (ip *Interpreter) executeLet(st *Statement) error {
	keyword := statementName(st.stype)
	for _, expr := range st.args {
		if st.stype == LocalStatement {
			if expr.root.op != opLeaf || expr.root.leaf.Type() != VariableType {
				return errEvalf("%s: expected a variable name", keyword)
			}
			ip.context.DefineVariable(expr.root.leaf.VariableName(), emptyString)
			continue
		}
		if !expr.IsAssignment() {
			return errEvalf("%s: expected an assignment", keyword)
		}
		if _, err := expr.Evaluate(ip.context); err != nil {
			return err
		}
	}
	return nil
}

// color "name", color "#rrggbb", or color "rgb", r, g, b with
// components in the range 0 to 1.
func (ip *Interpreter) executeColor(st *Statement) error {
	args, err := ip.evalArgs(st)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errEvalf("wrong number of arguments for color")
	}

	name := strings.ToLower(strings.TrimSpace(args[0].StringValue()))
	if name == "rgb" {
		if len(args) != 4 {
			return errEvalf("wrong number of arguments for color rgb")
		}
		var rgb [3]float64
		for i := 0; i < 3; i++ {
			v, err := args[i+1].NumericValue()
			if err != nil {
				return err
			}
			rgb[i] = math.Max(0, math.Min(1, v))
		}
		ip.context.SetColor(Color{R: rgb[0], G: rgb[1], B: rgb[2], A: 1})
		return nil
	}
	if len(args) != 1 {
		return errEvalf("wrong number of arguments for color")
	}
	ip.context.SetColor(ColorFromName(name))
	return nil
}

// executeFor iterates a hashmap's keys in insertion order, binding the
// loop variable in the current scope. Any other value loops once over
// the value itself.
func (ip *Interpreter) executeFor(st *Statement) error {
	set, err := st.loopSet.Evaluate(ip.context)
	if err != nil {
		return err
	}
	varName := st.loopVar.root.leaf.VariableName()

	if set.Type() != HashmapType {
		ip.context.DefineVariable(varName, set)
		return ip.executeBody(st.body)
	}
	for _, key := range set.HashMapKeys() {
		ip.context.DefineVariable(varName, NewStringArgument(key))
		if err := ip.executeBody(st.body); err != nil {
			return err
		}
	}
	return nil
}

// executeCall runs a user-defined procedure in a pushed context.
// Arguments are evaluated in the caller's scope before the push; the
// frame is popped even when the body fails.
func (ip *Interpreter) executeCall(st *Statement) error {
	proc, ok := ip.procedures[st.blockName]
	if !ok {
		return errEvalf("no such command or procedure %s", st.blockName)
	}
	if len(st.args) != len(proc.params) {
		return errEvalf("wrong number of parameters in call to %s", st.blockName)
	}

	args, err := ip.evalArgs(st)
	if err != nil {
		return err
	}
	if err := ip.context.Push(); err != nil {
		return err
	}
	for i, param := range proc.params {
		ip.context.DefineVariable(param, args[i])
	}

	err = ip.executeBody(proc.body)
	if popErr := ip.context.Pop(); err == nil {
		err = popErr
	}
	return err
}

// executeAddPath appends the points of geometry arguments to the path.
func (ip *Interpreter) executeAddPath(st *Statement) error {
	args, err := ip.evalArgs(st)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errEvalf("wrong number of arguments for addpath")
	}
	for _, arg := range args {
		if !arg.IsGeometry() {
			return errEvalf("addpath: not a geometry value")
		}
		coords := arg.GeometryValue()
		for i := 1; i+2 < len(coords); i += 3 {
			if coords[i] == SegmentMoveTo {
				ip.context.MoveTo(coords[i+1], coords[i+2])
			} else {
				ip.context.LineTo(coords[i+1], coords[i+2])
			}
		}
	}
	return nil
}

// newpage format, filename, width, height [, options]
func (ip *Interpreter) executeNewPage(st *Statement) error {
	args, err := ip.evalArgs(st)
	if err != nil {
		return err
	}
	if len(args) < 4 || len(args) > 5 {
		return errEvalf("wrong number of arguments for newpage")
	}
	if ip.newSink == nil {
		return errEvalf("newpage: no output driver available")
	}

	format := args[0].StringValue()
	name := args[1].StringValue()
	width, err := args[2].NumericValue()
	if err != nil {
		return err
	}
	height, err := args[3].NumericValue()
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return errEvalf("newpage: invalid page size")
	}
	options := ""
	if len(args) == 5 {
		options = args[4].StringValue()
	}

	sink, err := ip.newSink(format, width, height, options)
	if err != nil {
		return err
	}
	if err := sink.Configure(name, width, height, options); err != nil {
		return err
	}
	return ip.context.SetSink(sink, width, height)
}

// shape helpers, all drawing in current coordinates through the
// context stack so the transform applies

func (ip *Interpreter) sampledEllipse(xc, yc, rx, ry float64) {
	const steps = 72
	ip.context.MoveTo(xc+rx, yc)
	for i := 1; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		ip.context.LineTo(xc+rx*math.Cos(a), yc+ry*math.Sin(a))
	}
	ip.context.ClosePath()
}

// regularPolygon draws an n-sided polygon with its first vertex at
// the top.
func (ip *Interpreter) regularPolygon(n int, xc, yc, radius float64) {
	for i := 0; i < n; i++ {
		a := math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		x, y := xc+radius*math.Cos(a), yc+radius*math.Sin(a)
		if i == 0 {
			ip.context.MoveTo(x, y)
		} else {
			ip.context.LineTo(x, y)
		}
	}
	ip.context.ClosePath()
}

func (ip *Interpreter) star(xc, yc, radius float64, points int) error {
	if points < 3 {
		return errEvalf("star: too few points")
	}
	inner := radius * 0.382
	for i := 0; i < points*2; i++ {
		r := radius
		if i%2 == 1 {
			r = inner
		}
		a := math.Pi/2 + math.Pi*float64(i)/float64(points)
		x, y := xc+r*math.Cos(a), yc+r*math.Sin(a)
		if i == 0 {
			ip.context.MoveTo(x, y)
		} else {
			ip.context.LineTo(x, y)
		}
	}
	ip.context.ClosePath()
	return nil
}

// wedge draws a filled pie slice from startAngle sweeping sweep
// degrees counter-clockwise.
func (ip *Interpreter) wedge(xc, yc, radius, startAngle, sweep float64) {
	a0 := degreesToRadians(startAngle)
	a1 := a0 + degreesToRadians(sweep)
	steps := int(math.Max(2, math.Ceil(math.Abs(a1-a0)/(math.Pi/36))))

	ip.context.MoveTo(xc, yc)
	for i := 0; i <= steps; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(steps)
		ip.context.LineTo(xc+radius*math.Cos(a), yc+radius*math.Sin(a))
	}
	ip.context.ClosePath()
}

func (ip *Interpreter) spiral(xc, yc, radius, revolutions, startAngle float64) {
	if revolutions == 0 {
		return
	}
	sweep := revolutions * 2 * math.Pi
	steps := int(math.Ceil(math.Abs(sweep) / (math.Pi / 36)))

	ip.context.MoveTo(xc, yc)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		a := startAngle + sweep*t
		r := radius * t
		ip.context.LineTo(xc+r*math.Cos(a), yc+r*math.Sin(a))
	}
}

func (ip *Interpreter) roundedBox(values []float64) error {
	x1, y1 := math.Min(values[0], values[2]), math.Min(values[1], values[3])
	x2, y2 := math.Max(values[0], values[2]), math.Max(values[1], values[3])
	radius := math.Min(x2-x1, y2-y1) / 10
	if len(values) == 5 {
		radius = values[4]
	}
	if radius < 0 || radius*2 > x2-x1 || radius*2 > y2-y1 {
		return errEvalf("roundedbox: invalid corner radius")
	}

	corner := func(cx, cy, from, to float64) {
		const steps = 8
		for i := 0; i <= steps; i++ {
			a := from + (to-from)*float64(i)/steps
			ip.context.LineTo(cx+radius*math.Cos(a), cy+radius*math.Sin(a))
		}
	}
	ip.context.MoveTo(x1+radius, y1)
	ip.context.LineTo(x2-radius, y1)
	corner(x2-radius, y1+radius, -math.Pi/2, 0)
	ip.context.LineTo(x2, y2-radius)
	corner(x2-radius, y2-radius, 0, math.Pi/2)
	ip.context.LineTo(x1+radius, y2)
	corner(x1+radius, y2-radius, math.Pi/2, math.Pi)
	ip.context.LineTo(x1, y1+radius)
	corner(x1+radius, y1+radius, math.Pi, math.Pi*3/2)
	ip.context.ClosePath()
	return nil
}
