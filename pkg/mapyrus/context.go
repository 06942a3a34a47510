package mapyrus

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a drawing color: an RGB triple with alpha, keeping the
// name it was specified with. Resolving arbitrary color names is the
// host's concern; the core understands "#rrggbb" and "rgb" component
// forms plus a handful of common names.
type Color struct {
	Name    string
	R, G, B float64
	A       float64
}

func (c Color) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("#%02x%02x%02x",
		int(c.R*255+0.5), int(c.G*255+0.5), int(c.B*255+0.5))
}

var namedColors = map[string][3]float64{
	"black":   {0, 0, 0},
	"white":   {1, 1, 1},
	"red":     {1, 0, 0},
	"green":   {0, 1, 0},
	"blue":    {0, 0, 1},
	"yellow":  {1, 1, 0},
	"cyan":    {0, 1, 1},
	"magenta": {1, 0, 1},
	"grey":    {0.5, 0.5, 0.5},
	"gray":    {0.5, 0.5, 0.5},
}

// ColorFromName returns the color for a "#rrggbb" form or a known
// name. Unknown names pass through with zero components for the
// output driver to resolve.
func ColorFromName(name string) Color {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(lower, "#") && len(lower) == 7 {
		r, _ := strconv.ParseInt(lower[1:3], 16, 32)
		g, _ := strconv.ParseInt(lower[3:5], 16, 32)
		b, _ := strconv.ParseInt(lower[5:7], 16, 32)
		return Color{Name: lower, R: float64(r) / 255, G: float64(g) / 255,
			B: float64(b) / 255, A: 1}
	}
	if rgb, ok := namedColors[lower]; ok {
		return Color{Name: lower, R: rgb[0], G: rgb[1], B: rgb[2], A: 1}
	}
	return Color{Name: lower, A: 1}
}

// Context is one frame of the execution stack: the graphics
// attributes and transform in effect, plus this frame's own path,
// variables and output sink where it has them. A frame without its
// own path or variables reads the ones of the frame below it,
// materializing its own copy on first local mutation.
type Context struct {
	color     Color
	lineWidth float64
	ctm       AffineTransform
	rotation  float64

	// nil until this frame first mutates the path/variables
	path *GeometricPath
	vars map[string]*Argument

	sink                  OutputSink
	ownsSink              bool
	pageWidth, pageHeight float64

	// set when attributes changed since they were last sent to the
	// output sink
	attributesChanged bool

	// local clip paths are kept with the frame; they are not
	// forwarded anywhere by the core
	clipPath *GeometricPath

	fontName string
	fontSize float64
	justify  string
}

func newRootContext() *Context {
	return &Context{
		color:             ColorFromName("black"),
		lineWidth:         hairlineWidth,
		ctm:               IdentityTransform(),
		attributesChanged: true,
	}
}

// child frames copy attributes by value and share everything else
func (c *Context) newChild() *Context {
	return &Context{
		color:             c.color,
		lineWidth:         c.lineWidth,
		ctm:               c.ctm,
		rotation:          c.rotation,
		sink:              c.sink,
		pageWidth:         c.pageWidth,
		pageHeight:        c.pageHeight,
		attributesChanged: c.attributesChanged,
		fontName:          c.fontName,
		fontSize:          c.fontSize,
		justify:           c.justify,
	}
}
