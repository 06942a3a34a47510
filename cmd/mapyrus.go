package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mapyrus/mapyrus/pkg/mapyrus"
)

const HelpMessage = `
Mapyrus reads scripts that draw maps and vector graphics.
	mapyrus v%s

By default, mapyrus interprets from stdin.
	mapyrus < map.myr
Run scripts from source files by passing them to the interpreter.
	mapyrus map.myr legend.myr
Run from the command line with -eval.
	mapyrus -eval 'box 0, 0, 10, 10; print Mapyrus.path.length'

`

func main() {
	flag.Usage = func() {
		fmt.Printf(HelpMessage, mapyrus.Version)
		flag.PrintDefaults()
	}

	config := flag.String("config", "", "Read host configuration values from a YAML file")
	eval := flag.String("eval", "", "Evaluate argument as a Mapyrus script")
	verbose := flag.Bool("verbose", false, "Log interpreter debug information")

	version := flag.Bool("version", false, "Print version string and exit")
	help := flag.Bool("help", false, "Print help message and exit")

	flag.Parse()

	files := flag.Args()

	if *version {
		fmt.Printf("mapyrus v%s\n", mapyrus.Version)
		os.Exit(0)
	} else if *help {
		flag.Usage()
		os.Exit(0)
	}

	var configValues map[string]string
	if *config != "" {
		var err error
		configValues, err = mapyrus.LoadConfig(*config)
		if err != nil {
			mapyrus.LogErrf(mapyrus.ErrResource, "%s", err)
		}
	}

	// each sink writes drawing operations as text until a real output
	// driver is attached
	newSink := func(format string, width, height float64, options string) (mapyrus.OutputSink, error) {
		return mapyrus.NewTraceSink(os.Stdout), nil
	}

	run := func(interpret func(*mapyrus.Interpreter) error) {
		interpreter := mapyrus.NewInterpreter(os.Stdout, newSink)
		interpreter.Context().SetConfig(configValues)
		if err := interpret(interpreter); err != nil {
			reason := mapyrus.ErrSystem
			if e, ok := err.(mapyrus.Err); ok {
				reason = e.Reason()
			}
			mapyrus.LogErrf(reason, "%s", err)
		}
	}

	if *eval != "" {
		run(func(interpreter *mapyrus.Interpreter) error {
			return interpreter.InterpretReader(strings.NewReader(*eval), "(eval)")
		})
	} else if len(files) > 0 {
		// one interpreter per file, so scripts do not leak state into
		// each other
		for _, filePath := range files {
			if *verbose {
				mapyrus.LogDebugf("interpreting %s", filePath)
			}
			run(func(interpreter *mapyrus.Interpreter) error {
				return interpreter.InterpretFile(filePath)
			})
		}
	} else {
		run(func(interpreter *mapyrus.Interpreter) error {
			return interpreter.InterpretReader(os.Stdin, "(stdin)")
		})
	}
}
