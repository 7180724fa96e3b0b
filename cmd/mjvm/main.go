// mjvm executes stack bytecode produced by mjc.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/mjc/bytecode"
	"github.com/chazu/mjc/manifest"
	"github.com/chazu/mjc/vm"
)

// Exit codes.
const (
	exitOK      = 0
	exitOpen    = 1 // bytecode file cannot be opened or decoded
	exitRuntime = 2 // missing entry point or fatal execution error
)

// imageExt marks binary program images written by mjc -image.
const imageExt = ".mjb"

type options struct {
	debug     bool
	dump      bool
	strict    bool
	trace     bool
	entry     string
	maxDepth  int
	verbosity int
}

func main() {
	var opts options
	flag.BoolVar(&opts.debug, "debug", false, "Start the interactive step debugger")
	flag.BoolVar(&opts.dump, "dump", false, "Print the machine state when the program exits")
	flag.BoolVar(&opts.strict, "strict", false, "Treat loads of undeclared variables as fatal")
	flag.BoolVar(&opts.trace, "trace", false, "Log every executed instruction")
	flag.StringVar(&opts.entry, "entry", "", "Class whose main method starts execution")
	flag.IntVar(&opts.maxDepth, "max-depth", 0, "Maximum call depth")
	flag.IntVar(&opts.verbosity, "v", 0, "Log verbosity (1 info, 2 debug)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mjvm [options] [program.bc]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a bytecode program (default %s). Files ending in %s are read\n", manifest.DefaultOutput, imageExt)
		fmt.Fprintf(os.Stderr, "as binary images.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mjvm                      # Run output.bc\n")
		fmt.Fprintf(os.Stderr, "  mjvm -entry Main prog.bc  # Start at Main.main\n")
		fmt.Fprintf(os.Stderr, "  mjvm -debug prog.bc       # Step through prog.bc\n")
	}
	flag.Parse()

	commonlog.Configure(opts.verbosity, nil)

	if m, err := manifest.FindAndLoad("."); err == nil && m != nil {
		applyManifest(&opts, m)
	}

	path := manifest.DefaultOutput
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	atexit.Exit(run(opts, path))
}

func run(opts options, path string) int {
	log := commonlog.GetLogger("mjvm")

	prog, err := load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOpen
	}
	log.Infof("loaded %d methods from %s", prog.Len(), path)

	interp := vm.New(prog, vm.Options{
		StrictLoads:  opts.strict,
		MaxCallDepth: opts.maxDepth,
		Trace:        opts.trace,
	})
	if opts.dump {
		atexit.Register(func() {
			fmt.Fprint(os.Stderr, interp.DumpState())
		})
	}

	if opts.debug {
		if err := interp.Start(opts.entry); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitRuntime
		}
		d := newDebugger(interp, os.Stdout)
		runDebugger(d)
		if d.failed {
			return exitRuntime
		}
		return exitOK
	}

	if err := interp.Run(opts.entry); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitRuntime
	}
	return exitOK
}

// load reads a text program or, by extension, a binary image. Lines the
// text reader skips are logged as warnings.
func load(path string) (*bytecode.Program, error) {
	if filepath.Ext(path) == imageExt {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return bytecode.UnmarshalProgram(data)
	}

	prog, warnings, err := bytecode.ParseFile(path)
	if err != nil {
		return nil, err
	}
	log := commonlog.GetLogger("mjvm")
	for _, w := range warnings {
		log.Warningf("%s: %s", path, w)
	}
	for _, u := range prog.Unresolved() {
		log.Warningf("%s: unresolved target %s", path, u)
	}
	return prog, nil
}

// applyManifest fills options the command line left unset.
func applyManifest(opts *options, m *manifest.Manifest) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["entry"] {
		opts.entry = m.VM.Entry
	}
	if !set["strict"] {
		opts.strict = m.VM.StrictLoads
	}
	if !set["trace"] {
		opts.trace = m.VM.Trace
	}
	if !set["max-depth"] {
		opts.maxDepth = m.VM.MaxCallDepth
	}
}
