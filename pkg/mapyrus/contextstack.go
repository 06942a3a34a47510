package mapyrus

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// Version is reported by the Mapyrus.version pseudo-variable.
const Version = "0.1.0"

// Procedure calls and saved states may nest this deep before failing;
// the only brake on runaway recursion.
const maxStackDepth = 30

// default line width of the root context
const hairlineWidth = 0.1

// Variables beginning with this prefix are read-only values provided
// by the interpreter itself, never resolved against the stack.
const reservedVariablePrefix = "Mapyrus."

// ContextStack is the interpreter's environment: a stack of Context
// frames holding graphics state and variable bindings. Frame 0 is the
// root; procedure calls and state saves push, returns and restores
// pop. A ContextStack is owned by a single goroutine interpreting one
// script.
type ContextStack struct {
	contexts []*Context
	config   map[string]string
}

// NewContextStack returns a stack holding only the root frame, with
// default attributes, an identity transform, an empty path and no
// variables.
func NewContextStack() *ContextStack {
	return &ContextStack{contexts: []*Context{newRootContext()}}
}

// SetConfig provides the host configuration values served by the
// Mapyrus.config.* pseudo-variables.
func (cs *ContextStack) SetConfig(config map[string]string) {
	cs.config = config
}

// Depth returns the number of frames on the stack.
func (cs *ContextStack) Depth() int {
	return len(cs.contexts)
}

func (cs *ContextStack) current() *Context {
	return cs.contexts[len(cs.contexts)-1]
}

// Push adds a frame for a procedure call or state save. Attributes
// are copied by value; the path, variables and output sink are shared
// with the parent until the new frame mutates them. Pushing past the
// depth bound fails, the signal of runaway recursion.
func (cs *ContextStack) Push() error {
	if len(cs.contexts) >= maxStackDepth {
		return Err{reason: ErrResource, message: "procedure calls nested too deeply"}
	}
	cs.contexts = append(cs.contexts, cs.current().newChild())
	return nil
}

// Pop removes the top frame, closing any output sink the frame
// opened. The close is attempted even when popping during error
// handling. Attribute changes made by the frame mark the parent so
// its attributes are sent to the sink again before the next draw.
func (cs *ContextStack) Pop() error {
	if len(cs.contexts) <= 1 {
		return Err{reason: ErrAssert, message: "pop from context stack with no pushed frames"}
	}
	frame := cs.current()
	cs.contexts = cs.contexts[:len(cs.contexts)-1]

	var err error
	if frame.ownsSink && frame.sink != nil {
		err = frame.sink.Close()
	}
	if frame.attributesChanged {
		cs.current().attributesChanged = true
	}
	return err
}

// CloseAll pops every pushed frame, releasing any sinks they hold,
// and closes the root frame's sink. Used when interpretation ends.
func (cs *ContextStack) CloseAll() error {
	var first error
	for len(cs.contexts) > 1 {
		if err := cs.Pop(); err != nil && first == nil {
			first = err
		}
	}
	root := cs.current()
	if root.ownsSink && root.sink != nil {
		if err := root.sink.Close(); err != nil && first == nil {
			first = err
		}
		root.sink = nil
		root.ownsSink = false
	}
	return first
}

// variables

type pseudoVariable func(cs *ContextStack) *Argument

// Fixed dispatch table of interpreter-provided variables, consulted
// before any stack lookup.
var pseudoVariables = map[string]pseudoVariable{
	"Mapyrus.version": func(*ContextStack) *Argument {
		return NewStringArgument(Version)
	},
	"Mapyrus.random": func(*ContextStack) *Argument {
		return NewNumericArgument(rand.Float64())
	},
	"Mapyrus.timestamp": func(*ContextStack) *Argument {
		return NewStringArgument(time.Now().Format(time.RFC1123))
	},
	"Mapyrus.path.length": func(cs *ContextStack) *Argument {
		return NewNumericArgument(cs.Path().Length())
	},
	"Mapyrus.path.area": func(cs *ContextStack) *Argument {
		return NewNumericArgument(cs.Path().Area())
	},
	"Mapyrus.page.width": func(cs *ContextStack) *Argument {
		return NewNumericArgument(cs.current().pageWidth)
	},
	"Mapyrus.page.height": func(cs *ContextStack) *Argument {
		return NewNumericArgument(cs.current().pageHeight)
	},
	"Mapyrus.depth": func(cs *ContextStack) *Argument {
		return NewNumericArgument(float64(cs.Depth()))
	},
}

// GetVariable resolves a variable: reserved Mapyrus.* names through
// the pseudo-variable table, everything else by scanning frames
// innermost to outermost for the first definition. Returns nil when
// undefined.
func (cs *ContextStack) GetVariable(name string) *Argument {
	if strings.HasPrefix(name, reservedVariablePrefix) {
		if provider, ok := pseudoVariables[name]; ok {
			return provider(cs)
		}
		if key, ok := strings.CutPrefix(name, reservedVariablePrefix+"config."); ok {
			if v, ok := cs.config[key]; ok {
				return NewStringArgument(v)
			}
		}
		return nil
	}

	for i := len(cs.contexts) - 1; i >= 0; i-- {
		if cs.contexts[i].vars == nil {
			continue
		}
		if v, ok := cs.contexts[i].vars[name]; ok {
			return v
		}
	}
	return nil
}

// DefineVariable binds a variable in the current frame only, so that
// bindings made inside a procedure shadow, and never overwrite, a
// same-named variable of an outer frame. Reserved names are ignored.
func (cs *ContextStack) DefineVariable(name string, value *Argument) {
	if strings.HasPrefix(name, reservedVariablePrefix) {
		return
	}
	frame := cs.current()
	if frame.vars == nil {
		frame.vars = make(map[string]*Argument)
	}
	frame.vars[name] = value
}

// DefineHashMapEntry sets one entry of a hashmap variable in the
// current frame. A hashmap visible in an outer frame is copied, not
// mutated; an undefined or non-hashmap variable becomes a fresh
// hashmap holding just this entry.
func (cs *ContextStack) DefineHashMapEntry(name, key string, value *Argument) {
	if strings.HasPrefix(name, reservedVariablePrefix) {
		return
	}
	frame := cs.current()

	var hash *Argument
	if frame.vars != nil {
		if own, ok := frame.vars[name]; ok && own.Type() == HashmapType {
			hash = own
		}
	}
	if hash == nil {
		hash = NewHashmapArgument()
		if visible := cs.GetVariable(name); visible != nil && visible.Type() == HashmapType {
			for _, k := range visible.HashMapKeys() {
				hash.SetHashMapEntry(k, visible.HashMapEntry(k))
			}
		}
		cs.DefineVariable(name, hash)
	}
	hash.SetHashMapEntry(key, value)
}

// graphics attributes

// SetColor sets the drawing color of the current frame.
func (cs *ContextStack) SetColor(color Color) {
	frame := cs.current()
	frame.color = color
	frame.attributesChanged = true
}

// SetLineWidth sets the stroke width of the current frame.
func (cs *ContextStack) SetLineWidth(width float64) {
	frame := cs.current()
	frame.lineWidth = width
	frame.attributesChanged = true
}

// SetFont records the font used for labels drawn by the output
// driver.
func (cs *ContextStack) SetFont(name string, size float64) {
	frame := cs.current()
	frame.fontName = name
	frame.fontSize = size
	frame.attributesChanged = true
}

// SetJustify records the label justification.
func (cs *ContextStack) SetJustify(justify string) {
	frame := cs.current()
	frame.justify = justify
	frame.attributesChanged = true
}

// transforms

// Scale scales the coordinate system of the current frame.
func (cs *ContextStack) Scale(sx, sy float64) {
	frame := cs.current()
	frame.ctm = frame.ctm.Scaled(sx, sy)
}

// Rotate rotates the coordinate system of the current frame by angle
// radians.
func (cs *ContextStack) Rotate(angle float64) {
	frame := cs.current()
	frame.ctm = frame.ctm.Rotated(angle)
	frame.rotation += angle
}

// Translate shifts the origin of the current frame.
func (cs *ContextStack) Translate(tx, ty float64) {
	frame := cs.current()
	frame.ctm = frame.ctm.Translated(tx, ty)
}

// SetWorlds maps the world coordinate range (x1, y1)..(x2, y2) onto
// the full page. Fails when no page has been opened or the range is
// empty.
func (cs *ContextStack) SetWorlds(x1, y1, x2, y2 float64) error {
	frame := cs.current()
	if frame.pageWidth == 0 || frame.pageHeight == 0 {
		return errEvalf("worlds: no page defined")
	}
	if x2 == x1 || y2 == y1 {
		return errEvalf("worlds: empty world coordinate range")
	}
	frame.ctm = IdentityTransform().
		Scaled(frame.pageWidth/(x2-x1), frame.pageHeight/(y2-y1)).
		Translated(-x1, -y1)
	return nil
}

// path construction

// Path returns the path visible from the current frame, walking down
// to the nearest frame that owns one. The returned path must not be
// modified; mutations go through the drawing operations.
func (cs *ContextStack) Path() *GeometricPath {
	for i := len(cs.contexts) - 1; i >= 0; i-- {
		if cs.contexts[i].path != nil {
			return cs.contexts[i].path
		}
	}
	return NewGeometricPath()
}

// editablePath materializes the current frame's own copy of the
// visible path, so drawing inside a pushed frame never alters the
// path of the frames below.
func (cs *ContextStack) editablePath() *GeometricPath {
	frame := cs.current()
	if frame.path == nil {
		frame.path = cs.Path().Copy()
	}
	return frame.path
}

// MoveTo starts a new subpath at (x, y), transformed by the current
// transform.
func (cs *ContextStack) MoveTo(x, y float64) {
	frame := cs.current()
	px, py := frame.ctm.Apply(x, y)
	cs.editablePath().MoveTo(px, py, frame.rotation)
}

// LineTo draws to (x, y), transformed by the current transform.
func (cs *ContextStack) LineTo(x, y float64) {
	frame := cs.current()
	px, py := frame.ctm.Apply(x, y)
	cs.editablePath().LineTo(px, py)
}

// ClosePath closes the current subpath.
func (cs *ContextStack) ClosePath() {
	cs.editablePath().ClosePath()
}

// transformedDelta maps a displacement through the linear part of the
// current transform, ignoring translation.
func (cs *ContextStack) transformedDelta(dx, dy float64) (float64, float64) {
	ctm := cs.current().ctm
	ox, oy := ctm.Apply(0, 0)
	px, py := ctm.Apply(dx, dy)
	return px - ox, py - oy
}

// RDraw draws a segment displaced (dx, dy) from the path's end point.
// The displacement is in current coordinates.
func (cs *ContextStack) RDraw(dx, dy float64) error {
	path := cs.editablePath()
	x, y, ok := path.LastPoint()
	if !ok {
		return errEvalf("no current point in path")
	}
	tx, ty := cs.transformedDelta(dx, dy)
	path.LineTo(x+tx, y+ty)
	return nil
}

// Arc adds a circular arc from the path's end point around the centre
// (xc, yc) towards the end point (xe, ye), counter-clockwise when
// direction is positive. The radius is taken from the start point; the
// end point only fixes the finishing angle. Equal start and end angles
// give a full circle.
func (cs *ContextStack) Arc(direction, xc, yc, xe, ye float64) error {
	frame := cs.current()
	cx, cy := frame.ctm.Apply(xc, yc)
	ex, ey := frame.ctm.Apply(xe, ye)

	path := cs.editablePath()
	sx, sy, ok := path.LastPoint()
	if !ok {
		return errEvalf("no current point in path")
	}

	radius := math.Hypot(sx-cx, sy-cy)
	a0 := math.Atan2(sy-cy, sx-cx)
	a1 := math.Atan2(ey-cy, ex-cx)
	sweep := a1 - a0
	if direction >= 0 {
		for sweep <= geometryTolerance {
			sweep += 2 * math.Pi
		}
	} else {
		for sweep >= -geometryTolerance {
			sweep -= 2 * math.Pi
		}
	}

	steps := int(math.Ceil(math.Abs(sweep) / (math.Pi / 90)))
	for i := 1; i <= steps; i++ {
		a := a0 + sweep*float64(i)/float64(steps)
		path.LineTo(cx+radius*math.Cos(a), cy+radius*math.Sin(a))
	}
	return nil
}

// Bezier adds a cubic Bezier curve from the path's end point with
// control points (x1, y1), (x2, y2) and end point (x3, y3), flattened
// into line segments.
func (cs *ContextStack) Bezier(x1, y1, x2, y2, x3, y3 float64) error {
	frame := cs.current()
	cx1, cy1 := frame.ctm.Apply(x1, y1)
	cx2, cy2 := frame.ctm.Apply(x2, y2)
	ex, ey := frame.ctm.Apply(x3, y3)

	path := cs.editablePath()
	sx, sy, ok := path.LastPoint()
	if !ok {
		return errEvalf("no current point in path")
	}

	const steps = 32
	for i := 1; i <= steps; i++ {
		t := float64(i) / steps
		u := 1 - t
		x := u*u*u*sx + 3*u*u*t*cx1 + 3*u*t*t*cx2 + t*t*t*ex
		y := u*u*u*sy + 3*u*u*t*cy1 + 3*u*t*t*cy2 + t*t*t*ey
		path.LineTo(x, y)
	}
	return nil
}

// SineWave draws a sine wave from the path's end point to (x, y) with
// the given number of repeats and wave height.
func (cs *ContextStack) SineWave(x, y, repeats, height float64) error {
	frame := cs.current()
	ex, ey := frame.ctm.Apply(x, y)

	path := cs.editablePath()
	sx, sy, ok := path.LastPoint()
	if !ok {
		return errEvalf("no current point in path")
	}

	length := math.Hypot(ex-sx, ey-sy)
	if length < geometryTolerance || repeats <= 0 {
		path.LineTo(ex, ey)
		return nil
	}
	// unit vectors along and across the baseline
	ux, uy := (ex-sx)/length, (ey-sy)/length
	nx, ny := -uy, ux

	steps := int(math.Ceil(repeats * 16))
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		offset := height * math.Sin(t*repeats*2*math.Pi)
		path.LineTo(sx+ux*t*length+nx*offset, sy+uy*t*length+ny*offset)
	}
	return nil
}

// ClearPath discards the path of the current frame.
func (cs *ContextStack) ClearPath() {
	frame := cs.current()
	if frame.path == nil {
		frame.path = NewGeometricPath()
		return
	}
	frame.path.Reset()
}

// SetPath replaces the current frame's path, used by the path
// rewriting commands (samplepath, stripepath, ...).
func (cs *ContextStack) SetPath(path *GeometricPath) {
	cs.current().path = path
}

// SamplePath replaces the path with points sampled along it.
func (cs *ContextStack) SamplePath(spacing, offset float64) {
	cs.SetPath(cs.Path().Sample(spacing, offset))
}

// StripePath replaces the path with parallel lines across its
// bounding box.
func (cs *ContextStack) StripePath(spacing, angle float64) {
	cs.SetPath(cs.Path().Stripe(spacing, angle))
}

// ShiftPath replaces the path with a copy translated by (dx, dy) in
// current coordinates.
func (cs *ContextStack) ShiftPath(dx, dy float64) {
	tx, ty := cs.transformedDelta(dx, dy)
	cs.SetPath(cs.Path().Shift(tx, ty))
}

// ReversePath replaces the path with one running in the opposite
// direction.
func (cs *ContextStack) ReversePath() {
	cs.SetPath(cs.Path().Reverse())
}

// ClipPath keeps the current path as the frame's clip region. The
// clip is local to the frame and discarded when it pops.
func (cs *ContextStack) ClipPath() {
	cs.current().clipPath = cs.Path().Copy()
}

// output

// SetSink attaches an output sink to the current frame. The frame
// owns the sink and Pop will close it. Any sink the same frame opened
// earlier is closed first.
func (cs *ContextStack) SetSink(sink OutputSink, pageWidth, pageHeight float64) error {
	frame := cs.current()
	var err error
	if frame.ownsSink && frame.sink != nil {
		err = frame.sink.Close()
	}
	frame.sink = sink
	frame.ownsSink = true
	frame.pageWidth = pageWidth
	frame.pageHeight = pageHeight
	frame.attributesChanged = true
	return err
}

// CloseSink closes the sink visible from the current frame and
// detaches it from every frame sharing it.
func (cs *ContextStack) CloseSink() error {
	sink := cs.current().sink
	if sink == nil {
		return errEvalf("no page to end")
	}
	err := sink.Close()
	for _, frame := range cs.contexts {
		if frame.sink == sink {
			frame.sink = nil
			frame.ownsSink = false
		}
	}
	return err
}

// syncAttributes sends the frame's attributes to the sink if they
// changed since the last draw.
func (cs *ContextStack) syncAttributes() error {
	frame := cs.current()
	if !frame.attributesChanged {
		return nil
	}
	if err := frame.sink.SetAttributes(frame.color, frame.lineWidth); err != nil {
		return err
	}
	frame.attributesChanged = false
	return nil
}

// Stroke draws the outline of the current path on the output sink.
func (cs *ContextStack) Stroke() error {
	if cs.current().sink == nil {
		return errEvalf("no output page defined, use newpage first")
	}
	if err := cs.syncAttributes(); err != nil {
		return err
	}
	return cs.current().sink.Stroke(cs.Path())
}

// Fill fills the interior of the current path on the output sink.
func (cs *ContextStack) Fill() error {
	if cs.current().sink == nil {
		return errEvalf("no output page defined, use newpage first")
	}
	if err := cs.syncAttributes(); err != nil {
		return err
	}
	return cs.current().sink.Fill(cs.Path())
}
