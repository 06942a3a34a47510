package mapyrus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EOF is returned by Preprocessor.Read when the outermost reader
// is exhausted.
const EOF = rune(-1)

// one open script source in the include chain
type scriptReader struct {
	in     *bufio.Reader
	name   string
	dir    string
	line   int
	closer io.Closer
}

// Preprocessor provides a character stream over a script source,
// transparently splicing in files named by "include" lines. The
// current file and line number are tracked for error messages.
type Preprocessor struct {
	readers  []*scriptReader
	current  []rune
	pos      int
	pushback []rune
}

// NewPreprocessor returns a preprocessor reading from in, with name
// used in error messages. Includes are resolved relative to the
// current working directory.
func NewPreprocessor(in io.Reader, name string) *Preprocessor {
	return &Preprocessor{
		readers: []*scriptReader{{
			in:   bufio.NewReader(in),
			name: name,
			dir:  ".",
		}},
	}
}

// NewPreprocessorFromFile opens the script file at path and returns
// a preprocessor reading from it.
func NewPreprocessorFromFile(path string) (*Preprocessor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Err{reason: ErrResource, message: fmt.Sprintf("cannot open %s: %s", path, err)}
	}

	return &Preprocessor{
		readers: []*scriptReader{{
			in:     bufio.NewReader(f),
			name:   path,
			dir:    filepath.Dir(path),
			closer: f,
		}},
	}, nil
}

// Read returns the next character of the script, or EOF when the
// outermost source is exhausted.
func (p *Preprocessor) Read() (rune, error) {
	if n := len(p.pushback); n > 0 {
		r := p.pushback[n-1]
		p.pushback = p.pushback[:n-1]
		return r, nil
	}

	for p.pos >= len(p.current) {
		err := p.nextLine()
		if err == io.EOF {
			return EOF, nil
		} else if err != nil {
			return EOF, err
		}
	}

	r := p.current[p.pos]
	p.pos++
	return r, nil
}

// Unread pushes a character back onto the stream so that the next
// Read returns it again. Characters are returned in LIFO order.
func (p *Preprocessor) Unread(r rune) {
	p.pushback = append(p.pushback, r)
}

// Location returns the current file and line number in "file:line"
// form, for tagging error messages.
func (p *Preprocessor) Location() string {
	r := p.innermost()
	if r == nil {
		return "(no input)"
	}
	return fmt.Sprintf("%s:%d", r.name, r.line)
}

// FileName returns the name of the file currently being read.
func (p *Preprocessor) FileName() string {
	if r := p.innermost(); r != nil {
		return r.name
	}
	return ""
}

// LineNumber returns the line number currently being read.
func (p *Preprocessor) LineNumber() int {
	if r := p.innermost(); r != nil {
		return r.line
	}
	return 0
}

func (p *Preprocessor) innermost() *scriptReader {
	if len(p.readers) == 0 {
		return nil
	}
	return p.readers[len(p.readers)-1]
}

// Read the next full line from the innermost reader, popping back to
// enclosing readers at EOF and splicing in included files.
func (p *Preprocessor) nextLine() error {
	for {
		r := p.innermost()
		if r == nil {
			return io.EOF
		}

		line, err := r.in.ReadString('\n')
		if line == "" && err != nil {
			// finished with this reader, pop back to the includer
			if r.closer != nil {
				r.closer.Close()
			}
			p.readers = p.readers[:len(p.readers)-1]
			continue
		}
		r.line++

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "include") &&
			(len(trimmed) == len("include") || isSpace(rune(trimmed[len("include")]))) {
			err := p.pushInclude(trimmed[len("include"):], r)
			if err != nil {
				return err
			}
			continue
		}

		p.current = []rune(line)
		p.pos = 0
		return nil
	}
}

// open the file named on an include line and make it the innermost
// reader
func (p *Preprocessor) pushInclude(rest string, from *scriptReader) error {
	name := strings.TrimSpace(rest)
	if len(name) >= 2 {
		if q := name[0]; (q == '\'' || q == '"') && name[len(name)-1] == q {
			name = name[1 : len(name)-1]
		}
	}
	if name == "" {
		return errSyntaxf(p.Location(), "missing filename after include")
	}

	path := name
	if !filepath.IsAbs(path) {
		// resolve relative to the including file
		path = filepath.Join(from.dir, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return Err{reason: ErrResource,
			message: fmt.Sprintf("%s: cannot open included file %s: %s", p.Location(), name, err), located: true}
	}

	p.readers = append(p.readers, &scriptReader{
		in:     bufio.NewReader(f),
		name:   name,
		dir:    filepath.Dir(path),
		closer: f,
	})
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
