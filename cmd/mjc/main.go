// mjc compiles MiniJava sources to stack bytecode.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/mjc/bytecode"
	"github.com/chazu/mjc/compiler"
	"github.com/chazu/mjc/ir"
	"github.com/chazu/mjc/manifest"
	"github.com/chazu/mjc/vm"
)

// Exit codes.
const (
	exitOK       = 0
	exitIO       = 1 // also lexical errors
	exitSyntax   = 2
	exitInternal = 3 // malformed tree or TAC
	exitSemantic = 4
	exitRuntime  = 5 // -run failed
)

type options struct {
	output      string
	cfg         string
	image       string
	run         bool
	entry       string
	verbosity   int
	dump        bool
	fingerprint bool
	opcodes     bool
	strict      bool
	trace       bool
	maxDepth    int
}

func main() {
	var opts options
	flag.StringVar(&opts.output, "o", manifest.DefaultOutput, "Bytecode output path")
	flag.StringVar(&opts.cfg, "cfg", "", "Write the control-flow graph as Graphviz to this path")
	flag.StringVar(&opts.image, "image", "", "Also write a binary program image to this path")
	flag.BoolVar(&opts.run, "run", false, "Execute the program after compiling")
	flag.StringVar(&opts.entry, "entry", "", "Class whose main method starts execution (with -run)")
	flag.IntVar(&opts.verbosity, "v", 0, "Log verbosity (1 info, 2 debug)")
	flag.BoolVar(&opts.dump, "dump", false, "Print the generated program as a table")
	flag.BoolVar(&opts.fingerprint, "fingerprint", false, "Print the program fingerprint")
	flag.BoolVar(&opts.opcodes, "opcodes", false, "Print the instruction set and exit")
	flag.BoolVar(&opts.strict, "strict", false, "Treat loads of undeclared variables as fatal (with -run)")
	flag.BoolVar(&opts.trace, "trace", false, "Log every executed instruction (with -run)")
	flag.IntVar(&opts.maxDepth, "max-depth", 0, "Maximum call depth (with -run)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mjc [options] [source.java ...]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles MiniJava sources to bytecode. Without sources, the files listed\n")
		fmt.Fprintf(os.Stderr, "in the nearest %s are compiled.\n\n", manifest.FileName)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mjc Factorial.java              # Write output.bc\n")
		fmt.Fprintf(os.Stderr, "  mjc -cfg cfg.dot -dump Fac.java # Also dump the CFG and a listing\n")
		fmt.Fprintf(os.Stderr, "  mjc -run -entry Main Main.java  # Compile and execute\n")
	}
	flag.Parse()

	commonlog.Configure(opts.verbosity, nil)
	atexit.Exit(run(opts, flag.Args()))
}

func run(opts options, args []string) int {
	log := commonlog.GetLogger("mjc")

	if opts.opcodes {
		fmt.Println(bytecode.InstructionSetTable())
		return exitOK
	}

	paths := args
	if len(paths) == 0 {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitIO
		}
		if m == nil {
			flag.Usage()
			return exitIO
		}
		if paths, err = m.SourcePaths(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitIO
		}
		applyManifest(&opts, m)
		log.Infof("using %s/%s", m.Dir, manifest.FileName)
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no source files\n")
		return exitIO
	}

	sources := newSourceSet()
	if err := sources.load(paths); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitIO
	}

	ast, table, err := compiler.Check(sources.String())
	if err != nil {
		var diag *compiler.DiagnosticsError
		if !errors.As(err, &diag) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitInternal
		}
		fmt.Fprintf(os.Stderr, "%s errors:\n", diag.Stage)
		for _, msg := range diag.Messages {
			fmt.Fprintf(os.Stderr, "  %s\n", sources.position(msg))
		}
		switch diag.Stage {
		case compiler.StageLexical:
			return exitIO
		case compiler.StageSyntax:
			return exitSyntax
		}
		return exitSemantic
	}

	cfg, err := ir.Build(ast)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInternal
	}
	log.Infof("built %d blocks", cfg.Len())

	if opts.cfg != "" {
		if err := cfg.WriteDotFile(opts.cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitIO
		}
	}

	prog, err := bytecode.Generate(cfg, table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInternal
	}

	for _, u := range prog.Unresolved() {
		log.Warningf("unresolved target %s", u)
	}

	if err := prog.WriteFile(opts.output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitIO
	}
	log.Infof("wrote %d methods to %s", prog.Len(), opts.output)

	if opts.image != "" {
		data, err := bytecode.MarshalProgram(prog)
		if err == nil {
			err = os.WriteFile(opts.image, data, 0644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: writing image: %v\n", err)
			return exitIO
		}
	}

	if opts.dump {
		fmt.Println(prog.Listing())
	}
	if opts.fingerprint {
		sum, err := bytecode.Fingerprint(prog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitInternal
		}
		fmt.Println(sum)
	}

	if opts.run {
		interp := vm.New(prog, vm.Options{
			StrictLoads:  opts.strict,
			MaxCallDepth: opts.maxDepth,
			Trace:        opts.trace,
		})
		if err := interp.Run(opts.entry); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitRuntime
		}
	}
	return exitOK
}

// applyManifest fills options the command line left unset.
func applyManifest(opts *options, m *manifest.Manifest) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["o"] {
		opts.output = m.OutputPath()
	}
	if !set["cfg"] {
		opts.cfg = m.CFGPath()
	}
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
