package compiler

import (
	"fmt"
	"strings"
)

// Stage identifies the front-end phase that rejected a program.
type Stage int

const (
	StageLexical Stage = iota + 1
	StageSyntax
	StageSemantic
)

func (s Stage) String() string {
	switch s {
	case StageLexical:
		return "lexical"
	case StageSyntax:
		return "syntax"
	case StageSemantic:
		return "semantic"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// DiagnosticsError carries every message reported by one front-end stage.
type DiagnosticsError struct {
	Stage    Stage
	Messages []string
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("%s errors:\n  %s", e.Stage, strings.Join(e.Messages, "\n  "))
}

// Check parses source, builds its symbol table and runs semantic analysis.
// The first stage reporting problems stops the pipeline with a
// *DiagnosticsError.
func Check(source string) (*Program, *SymbolTable, error) {
	p := NewParser(source)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		stage := StageSyntax
		if p.HasLexicalErrors() {
			stage = StageLexical
		}
		return nil, nil, &DiagnosticsError{Stage: stage, Messages: errs}
	}

	table, errs := BuildSymbolTable(prog)
	errs = append(errs, NewSemanticAnalyzer(table).Analyze(prog)...)
	if len(errs) > 0 {
		return nil, nil, &DiagnosticsError{Stage: StageSemantic, Messages: errs}
	}
	return prog, table, nil
}
