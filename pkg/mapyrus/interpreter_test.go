package mapyrus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runScript interprets src with a trace sink for newpage and returns
// everything printed to stdout.
func runScript(t *testing.T, src string) string {
	t.Helper()
	out, err := tryScript(src)
	require.NoError(t, err)
	return out
}

func tryScript(src string) (string, error) {
	var out bytes.Buffer
	interpreter := NewInterpreter(&out,
		func(format string, width, height float64, options string) (OutputSink, error) {
			return NewTraceSink(&out), nil
		})
	err := interpreter.InterpretReader(strings.NewReader(src), "script")
	return out.String(), err
}

func TestPrint(t *testing.T) {
	assert.Equal(t, "hello 3\n", runScript(t, "print 'hello', 1 + 2\n"))
	assert.Equal(t, "\n", runScript(t, "print\n"))
}

func TestLetAndArithmetic(t *testing.T) {
	out := runScript(t, `
let a = 6, b = 7
print a * b
`)
	assert.Equal(t, "42\n", out)
}

func TestLetRequiresAssignment(t *testing.T) {
	_, err := tryScript("let 1 + 2\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected an assignment")
}

func TestConditionalChain(t *testing.T) {
	out := runScript(t, `
let a = 5
if a > 10 then
	print 'big'
elseif a > 3 then
	print 'medium'
else
	print 'small'
endif
`)
	assert.Equal(t, "medium\n", out)
}

func TestWhileLoop(t *testing.T) {
	out := runScript(t, `
let i = 1
while i <= 3 do
	print i
	let i = i + 1
done
`)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestRepeatLoop(t *testing.T) {
	assert.Equal(t, "x\nx\nx\n", runScript(t, "repeat 3 do\nprint 'x'\ndone\n"))
	assert.Equal(t, "", runScript(t, "repeat 0 do\nprint 'x'\ndone\n"))
}

func TestForIteratesInInsertionOrder(t *testing.T) {
	out := runScript(t, `
let h['one'] = 1
let h['two'] = 2
let h['three'] = 3
for k in h do
	print k, h[k]
done
`)
	assert.Equal(t, "one 1\ntwo 2\nthree 3\n", out)
}

func TestProcedureCall(t *testing.T) {
	out := runScript(t, `
begin double n
	print n * 2
end
double 21
`)
	assert.Equal(t, "42\n", out)
}

func TestProcedureSeesCallersVariables(t *testing.T) {
	out := runScript(t, `
let prefix = '>'
begin show msg
	print prefix, msg
end
show 'hi'
`)
	assert.Equal(t, "> hi\n", out)
}

func TestProcedureLocalsDoNotLeak(t *testing.T) {
	out := runScript(t, `
let n = 1
begin p
	local n
	let n = 99
end
p
print n
`)
	assert.Equal(t, "1\n", out)
}

func TestCallWithWrongParameterCount(t *testing.T) {
	_, err := tryScript("begin p a\nend\np 1, 2\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong number of parameters")
}

func TestUnknownProcedure(t *testing.T) {
	_, err := tryScript("nosuchthing 1\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such command or procedure")
}

func TestRunawayRecursion(t *testing.T) {
	_, err := tryScript("begin loop\nloop\nend\nloop\n")
	require.Error(t, err)
	assert.Equal(t, ErrResource, err.(Err).Reason())
	assert.Contains(t, err.Error(), "nested too deeply")
}

func TestErrorsCarrySourceLocation(t *testing.T) {
	_, err := tryScript("print 1\nprint 2\nlet b\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script:3:")
	// the location is added once, not per enclosing statement
	assert.Equal(t, 1, strings.Count(err.Error(), "script:3:"))
}

func TestPathLengthVariable(t *testing.T) {
	out := runScript(t, `
move 0, 0
draw 3, 4
print Mapyrus.path.length
`)
	assert.Equal(t, "5\n", out)
}

func TestScaleAppliesToCoordinates(t *testing.T) {
	out := runScript(t, `
scale 3
move 0, 0
draw 4, 0
print Mapyrus.path.length
`)
	assert.Equal(t, "12\n", out)
}

func TestBoxAreaAndSign(t *testing.T) {
	out := runScript(t, `
box 0, 0, 10, 10
print Mapyrus.path.area
reversepath
print Mapyrus.path.area
`)
	assert.Equal(t, "100\n-100\n", out)
}

func TestDrawingToTraceSink(t *testing.T) {
	out := runScript(t, `
newpage 'trace', 'page1', 100, 100
box 10, 10, 20, 20
stroke
endpage
`)
	assert.Contains(t, out, "newpage page1 100 x 100")
	assert.Contains(t, out, "attributes color=black linewidth=0.1")
	assert.Contains(t, out, "stroke MULTIPOLYGON (((10 10, 20 10, 20 20, 10 20)))")
	assert.Contains(t, out, "endpage")
}

func TestColorAndLineStyle(t *testing.T) {
	out := runScript(t, `
newpage 'trace', 'p', 50, 50
color 'rgb', 1, 0, 0
linestyle 2
move 0, 0
draw 10, 0
stroke
`)
	assert.Contains(t, out, "attributes color=#ff0000 linewidth=2")
}

func TestStrokeWithoutPage(t *testing.T) {
	_, err := tryScript("move 0, 0\ndraw 1, 1\nstroke\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newpage")
}

func TestSamplePathStatement(t *testing.T) {
	out := runScript(t, `
move 0, 0
draw 5, 0
samplepath 1, 0
print Mapyrus.path.length
`)
	// sampling leaves only isolated points
	assert.Equal(t, "0\n", out)
}

func TestCircleIsClosedAndRound(t *testing.T) {
	out := runScript(t, `
circle 0, 0, 10
print Mapyrus.path.area > 310 and Mapyrus.path.area < 315
`)
	assert.Equal(t, "1\n", out)
}

func TestWedgeArea(t *testing.T) {
	// a quarter wedge of radius 10 is about 78.5 square units
	out := runScript(t, `
wedge 0, 0, 10, 0, 90
print Mapyrus.path.area > 77 and Mapyrus.path.area < 79
`)
	assert.Equal(t, "1\n", out)
}

func TestAddPathFromGeometry(t *testing.T) {
	var out bytes.Buffer
	interpreter := NewInterpreter(&out, nil)
	geom := NewGeometryArgument(GeometryLineString,
		[]float64{2, SegmentMoveTo, 0, 0, SegmentLineTo, 6, 8})
	interpreter.Context().DefineVariable("g", geom)

	statements := parseScript(t, "addpath g\nprint Mapyrus.path.length\n")
	require.NoError(t, interpreter.Interpret(statements))
	assert.Equal(t, "10\n", out.String())
}

func TestAddPathRejectsNonGeometry(t *testing.T) {
	_, err := tryScript("addpath 5\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a geometry")
}

func TestProcedurePathIsDiscardedOnReturn(t *testing.T) {
	out := runScript(t, `
move 0, 0
draw 1, 0
begin extend
	draw 100, 0
	print Mapyrus.path.length
end
extend
print Mapyrus.path.length
`)
	assert.Equal(t, "100\n1\n", out)
}

func TestEndPageWithoutPage(t *testing.T) {
	_, err := tryScript("endpage\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no page")
}

func TestUnsupportedStatement(t *testing.T) {
	_, err := tryScript("dataset 'shapefile', 'coast.shp'\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset")
	assert.Contains(t, err.Error(), "not supported")
}

func TestUnpairedCoordinates(t *testing.T) {
	_, err := tryScript("move 1, 2, 3\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unpaired")
}

func TestArcStatement(t *testing.T) {
	out := runScript(t, `
move 10, 0
arc 1, 0, 0, 0, 10
print Mapyrus.path.length > 15.6 and Mapyrus.path.length < 15.8
`)
	assert.Equal(t, "1\n", out)
}

func TestRDrawStatement(t *testing.T) {
	out := runScript(t, `
move 1, 1
rdraw 3, 0, 0, 4
print Mapyrus.path.length
`)
	assert.Equal(t, "7\n", out)
}

func TestTranslateInsideProcedureIsRestored(t *testing.T) {
	out := runScript(t, `
begin mark
	translate 100, 100
	move 0, 0
end
mark
move 1, 0
draw 2, 0
print Mapyrus.path.length
`)
	assert.Equal(t, "1\n", out)
}

func TestEval(t *testing.T) {
	out := runScript(t, "print 2 + 3 * 4; print 'done'\n")
	assert.Equal(t, "14\ndone\n", out)
}
