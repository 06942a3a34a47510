package mapyrus

import (
	"math"
	"strconv"
	"strings"
)

// ArgumentType identifies which variant an Argument holds.
type ArgumentType int

// Argument variants. The six geometry types share one coordinate
// layout and differ only in how they serialize to OGC WKT.
const (
	NumericType ArgumentType = iota
	StringType
	VariableType
	HashmapType
	GeometryPoint
	GeometryLineString
	GeometryPolygon
	GeometryMultiPoint
	GeometryMultiLineString
	GeometryMultiPolygon
)

// Flags marking each (x, y) pair in a geometry coordinate array as
// the start of a new sub-geometry or a continuation of the last one.
const (
	SegmentMoveTo = 0.0
	SegmentLineTo = 1.0
)

// Argument is a single runtime value: a number, a string, a variable
// name, a string-keyed hashmap, or a geometry. Arguments are immutable
// after construction, except that entries may be added to a hashmap.
type Argument struct {
	atype    ArgumentType
	value    float64
	str      string
	varName  string
	coords   []float64
	hashKeys []string
	hash     map[string]*Argument
}

// emptyString is returned for every undefined variable and missing
// hashmap key, so lookups never fail.
var emptyString = &Argument{atype: StringType, str: ""}

// NewNumericArgument returns an Argument holding the number v.
func NewNumericArgument(v float64) *Argument {
	return &Argument{atype: NumericType, value: v}
}

// NewStringArgument returns an Argument holding the string s.
func NewStringArgument(s string) *Argument {
	if s == "" {
		return emptyString
	}
	return &Argument{atype: StringType, str: s}
}

// NewVariableArgument returns an Argument referencing the variable
// named name.
func NewVariableArgument(name string) *Argument {
	return &Argument{atype: VariableType, varName: name}
}

// NewHashmapArgument returns a new, empty hashmap Argument.
func NewHashmapArgument() *Argument {
	return &Argument{atype: HashmapType, hash: make(map[string]*Argument)}
}

// NewGeometryArgument returns a geometry Argument of the given type.
// The coordinate array has the layout [n, segFlag, x, y, segFlag, x,
// y, ...] where n counts the (x, y) pairs; n == 0 is the empty
// geometry.
func NewGeometryArgument(atype ArgumentType, coords []float64) *Argument {
	return &Argument{atype: atype, coords: coords}
}

// Type returns the variant this Argument holds.
func (arg *Argument) Type() ArgumentType {
	return arg.atype
}

// IsGeometry reports whether this Argument holds one of the six
// geometry variants.
func (arg *Argument) IsGeometry() bool {
	return arg.atype >= GeometryPoint
}

// NumericValue returns the Argument as a number. String values that
// parse as numbers convert; anything else is an evaluation error.
func (arg *Argument) NumericValue() (float64, error) {
	switch arg.atype {
	case NumericType:
		return arg.value, nil
	case StringType:
		v, err := strconv.ParseFloat(strings.TrimSpace(arg.str), 64)
		if err != nil {
			return 0, errEvalf("not a number: %s", arg.str)
		}
		return v, nil
	case VariableType:
		return 0, errEvalf("variable %s has no numeric value", arg.varName)
	}
	return 0, errEvalf("not a number: %s", arg.StringValue())
}

// VariableName returns the referenced variable name of a variable
// Argument, or the empty string.
func (arg *Argument) VariableName() string {
	return arg.varName
}

// GeometryValue returns the coordinate array of a geometry Argument.
func (arg *Argument) GeometryValue() []float64 {
	return arg.coords
}

// HashMapEntry returns the value stored under key, or an empty string
// value if the key is not defined. Missing keys are never an error.
func (arg *Argument) HashMapEntry(key string) *Argument {
	if arg.atype == HashmapType {
		if v, ok := arg.hash[key]; ok {
			return v
		}
	}
	return emptyString
}

// SetHashMapEntry stores value under key, preserving the insertion
// order of first definitions for iteration.
func (arg *Argument) SetHashMapEntry(key string, value *Argument) {
	if arg.atype != HashmapType {
		return
	}
	if _, ok := arg.hash[key]; !ok {
		arg.hashKeys = append(arg.hashKeys, key)
	}
	arg.hash[key] = value
}

// HashMapKeys returns the keys of a hashmap Argument in insertion
// order, the order "for" loops iterate in.
func (arg *Argument) HashMapKeys() []string {
	return arg.hashKeys
}

// HashMapSize returns the number of entries in a hashmap Argument.
func (arg *Argument) HashMapSize() int {
	return len(arg.hashKeys)
}

// StringValue returns the display form of the Argument: numbers per
// formatNumber, geometries as OGC WKT, hashmaps as a brace-wrapped
// entry list.
func (arg *Argument) StringValue() string {
	switch arg.atype {
	case NumericType:
		return formatNumber(arg.value)
	case StringType:
		return arg.str
	case VariableType:
		return arg.varName
	case HashmapType:
		entries := make([]string, len(arg.hashKeys))
		for i, k := range arg.hashKeys {
			entries[i] = k + ": " + arg.hash[k].StringValue()
		}
		return "{" + strings.Join(entries, ", ") + "}"
	}
	return arg.wkt()
}

// String implements fmt.Stringer.
func (arg *Argument) String() string {
	return arg.StringValue()
}

// TruthValue reports whether the Argument counts as true in a
// condition: a nonzero number, or any string that is nonempty and not
// a representation of zero.
func (arg *Argument) TruthValue() bool {
	switch arg.atype {
	case NumericType:
		return arg.value != 0
	case StringType:
		if arg.str == "" {
			return false
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(arg.str), 64); err == nil {
			return v != 0
		}
		return true
	case HashmapType:
		return len(arg.hashKeys) > 0
	}
	return true
}

// formatNumber formats a number for display. Values outside the range
// 0.01..1e7 (in magnitude) switch to scientific notation; everything
// formats with the minimal precision that re-parses to the same value.
func formatNumber(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 0.01 || abs > 1e7) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// wkt serializes a geometry Argument to OGC Well-Known Text. An empty
// geometry (zero coordinate pairs) serializes to NULL.
func (arg *Argument) wkt() string {
	if len(arg.coords) == 0 || arg.coords[0] == 0 {
		return "NULL"
	}

	rings := splitRings(arg.coords)
	var sb strings.Builder
	switch arg.atype {
	case GeometryPoint:
		sb.WriteString("POINT (")
		sb.WriteString(formatCoords(rings[0]))
		sb.WriteString(")")
	case GeometryLineString:
		sb.WriteString("LINESTRING (")
		sb.WriteString(formatCoords(rings[0]))
		sb.WriteString(")")
	case GeometryPolygon:
		sb.WriteString("POLYGON (")
		writeRings(&sb, rings)
		sb.WriteString(")")
	case GeometryMultiPoint:
		sb.WriteString("MULTIPOINT (")
		writeRings(&sb, rings)
		sb.WriteString(")")
	case GeometryMultiLineString:
		sb.WriteString("MULTILINESTRING (")
		writeRings(&sb, rings)
		sb.WriteString(")")
	case GeometryMultiPolygon:
		sb.WriteString("MULTIPOLYGON (")
		for i, ring := range rings {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("((")
			sb.WriteString(formatCoords(ring))
			sb.WriteString("))")
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// splitRings breaks a coordinate array into runs of points, one run
// per moveto flag.
func splitRings(coords []float64) [][]float64 {
	var rings [][]float64
	var ring []float64
	for i := 1; i+2 < len(coords); i += 3 {
		if coords[i] == SegmentMoveTo && ring != nil {
			rings = append(rings, ring)
			ring = nil
		}
		ring = append(ring, coords[i+1], coords[i+2])
	}
	if ring != nil {
		rings = append(rings, ring)
	}
	return rings
}

func formatCoords(ring []float64) string {
	var sb strings.Builder
	for i := 0; i+1 < len(ring); i += 2 {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatNumber(ring[i]))
		sb.WriteString(" ")
		sb.WriteString(formatNumber(ring[i+1]))
	}
	return sb.String()
}

func writeRings(sb *strings.Builder, rings [][]float64) {
	for i, ring := range rings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		sb.WriteString(formatCoords(ring))
		sb.WriteString(")")
	}
}
