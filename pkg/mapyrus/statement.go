package mapyrus

// StatementType tags each parsed statement with the command it
// invokes. Keywords not in the table parse as calls to a procedure
// resolved when the statement runs.
type StatementType int

const (
	// compound statements
	BlockStatement StatementType = iota
	ConditionalStatement
	WhileStatement
	RepeatStatement
	ForStatement
	CallStatement

	// variables and output
	LetStatement
	LocalStatement
	PrintStatement

	// graphics attributes
	ColorStatement
	BlendStatement
	LineStyleStatement
	FontStatement
	JustifyStatement

	// coordinate transforms
	ScaleStatement
	RotateStatement
	TranslateStatement
	WorldsStatement

	// path construction
	MoveStatement
	DrawStatement
	RDrawStatement
	ArcStatement
	BezierStatement
	BoxStatement
	Box3DStatement
	ChessboardStatement
	CircleStatement
	CylinderStatement
	EllipseStatement
	HexagonStatement
	PentagonStatement
	TriangleStatement
	StarStatement
	WedgeStatement
	SpiralStatement
	LogSpiralStatement
	SineWaveStatement
	RaindropStatement
	RoundedBoxStatement
	AddPathStatement
	ClearPathStatement
	ClosePathStatement

	// path rewriting
	SamplePathStatement
	StripePathStatement
	ShiftPathStatement
	ReversePathStatement
	ParallelPathStatement
	SelectPathStatement
	SinkholeStatement
	GuillotineStatement

	// drawing
	StrokeStatement
	FillStatement
	GradientFillStatement
	ClipStatement
	ProtectStatement
	UnprotectStatement
	LabelStatement
	FlowLabelStatement
	TableStatement
	TreeStatement
	IconStatement
	GeoImageStatement
	EPSStatement
	SVGStatement
	SVGCodeStatement
	PDFStatement
	PDFGroupStatement
	KeyStatement
	LegendStatement

	// pages and datasets
	NewPageStatement
	EndPageStatement
	SetOutputStatement
	MimeTypeStatement
	HTTPResponseStatement
	DatasetStatement
	FetchStatement
	EventScriptStatement
)

// statementKeywords maps each command keyword, in lower case, to its
// statement type. Compound keywords (begin, if, while, repeat, for)
// are handled separately by the parser.
var statementKeywords = map[string]StatementType{
	"let":          LetStatement,
	"local":        LocalStatement,
	"print":        PrintStatement,
	"color":        ColorStatement,
	"colour":       ColorStatement,
	"blend":        BlendStatement,
	"linestyle":    LineStyleStatement,
	"font":         FontStatement,
	"justify":      JustifyStatement,
	"scale":        ScaleStatement,
	"rotate":       RotateStatement,
	"translate":    TranslateStatement,
	"worlds":       WorldsStatement,
	"move":         MoveStatement,
	"draw":         DrawStatement,
	"rdraw":        RDrawStatement,
	"arc":          ArcStatement,
	"bezier":       BezierStatement,
	"box":          BoxStatement,
	"box3d":        Box3DStatement,
	"chessboard":   ChessboardStatement,
	"circle":       CircleStatement,
	"cylinder":     CylinderStatement,
	"ellipse":      EllipseStatement,
	"hexagon":      HexagonStatement,
	"pentagon":     PentagonStatement,
	"triangle":     TriangleStatement,
	"star":         StarStatement,
	"wedge":        WedgeStatement,
	"spiral":       SpiralStatement,
	"logspiral":    LogSpiralStatement,
	"sinewave":     SineWaveStatement,
	"raindrop":     RaindropStatement,
	"roundedbox":   RoundedBoxStatement,
	"addpath":      AddPathStatement,
	"clearpath":    ClearPathStatement,
	"closepath":    ClosePathStatement,
	"samplepath":   SamplePathStatement,
	"stripepath":   StripePathStatement,
	"shiftpath":    ShiftPathStatement,
	"reversepath":  ReversePathStatement,
	"parallelpath": ParallelPathStatement,
	"selectpath":   SelectPathStatement,
	"sinkhole":     SinkholeStatement,
	"guillotine":   GuillotineStatement,
	"stroke":       StrokeStatement,
	"fill":         FillStatement,
	"gradientfill": GradientFillStatement,
	"clip":         ClipStatement,
	"protect":      ProtectStatement,
	"unprotect":    UnprotectStatement,
	"label":        LabelStatement,
	"flowlabel":    FlowLabelStatement,
	"table":        TableStatement,
	"tree":         TreeStatement,
	"icon":         IconStatement,
	"geoimage":     GeoImageStatement,
	"eps":          EPSStatement,
	"svg":          SVGStatement,
	"svgcode":      SVGCodeStatement,
	"pdf":          PDFStatement,
	"pdfgroup":     PDFGroupStatement,
	"key":          KeyStatement,
	"legend":       LegendStatement,
	"newpage":      NewPageStatement,
	"endpage":      EndPageStatement,
	"setoutput":    SetOutputStatement,
	"mimetype":     MimeTypeStatement,
	"httpresponse": HTTPResponseStatement,
	"dataset":      DatasetStatement,
	"fetch":        FetchStatement,
	"eventscript":  EventScriptStatement,
}

// Statement is one parsed statement: a leaf command with its argument
// expressions, or a compound statement carrying nested statement
// lists verbatim. Statements are pure data; the interpreter gives
// them meaning. Parsed statements are immutable and may be shared
// between interpreter instances.
type Statement struct {
	stype    StatementType
	args     []*Expression
	filename string
	line     int

	// BlockStatement: procedure name and formal parameter names;
	// CallStatement: name of the procedure to call
	blockName string
	params    []string

	// ConditionalStatement / WhileStatement test, or the
	// RepeatStatement count
	test *Expression

	// ForStatement loop variable and the hashmap to iterate
	loopVar *Expression
	loopSet *Expression

	thenBody []*Statement
	elseBody []*Statement
	body     []*Statement
}

// Type returns the tag identifying what this statement does.
func (st *Statement) Type() StatementType {
	return st.stype
}

// Location returns the source file and line the statement came from.
func (st *Statement) Location() (string, int) {
	return st.filename, st.line
}

// BlockName returns the procedure name of a block or call statement.
func (st *Statement) BlockName() string {
	return st.blockName
}
