// Package server implements a Language Server Protocol front end for
// MiniJava sources: diagnostics from the checker, hover with signatures and
// generated bytecode, completion, definitions and references.
package server

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/mjc/bytecode"
	"github.com/chazu/mjc/compiler"
	"github.com/chazu/mjc/ir"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "mjc-lsp"

var keywords = []string{
	"boolean", "class", "else", "extends", "false", "if", "int", "length",
	"main", "new", "public", "return", "static", "String", "System.out.println",
	"this", "true", "void", "while",
}

// document is one open file and the result of checking it. When the latest
// text fails to check, prog and table keep the last good analysis.
type document struct {
	text  string
	prog  *compiler.Program
	table *compiler.SymbolTable
	diags []protocol.Diagnostic
}

// LspServer serves MiniJava editor features over stdio.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]*document // URI → document

	handler protocol.Handler
	server  *glspserver.Server
	version string
	log     commonlog.Logger
}

// NewLSP creates a new language server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]*document),
		version: "0.1.0",
		log:     commonlog.GetLogger("mjc.server"),
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("MiniJava LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	doc := s.update(string(uri), params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri, doc.diags)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			doc := s.update(string(uri), whole.Text)
			s.publishDiagnostics(ctx, uri, doc.diags)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	s.publishDiagnostics(ctx, uri, []protocol.Diagnostic{})
	return nil
}

// update re-checks a document and stores the result.
func (s *LspServer) update(uri, text string) *document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := analyze(text, s.docs[uri])
	s.docs[uri] = doc
	s.log.Debugf("%s: %d diagnostics", uri, len(doc.diags))
	return doc
}

func (s *LspServer) document(uri protocol.DocumentUri) (*document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[string(uri)]
	return doc, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(doc.text, params.Position)
	afterDot := prefix == "" && charBefore(doc.text, params.Position) == '.'
	if prefix == "" && !afterDot {
		return nil, nil
	}
	return complete(doc, prefix, afterDot), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(doc, word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	doc, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	locs := definition(uri, doc, word)
	if len(locs) == 0 {
		return nil, nil
	}
	return locs, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	doc, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return references(uri, doc.text, word), nil
}

// --- Analysis ---

var diagRE = regexp.MustCompile(`^line (\d+)(?:, column (\d+))?: (.*)$`)

// analyze checks text. prev supplies the fallback analysis for hover and
// completion when text does not check.
func analyze(text string, prev *document) *document {
	doc := &document{text: text, diags: []protocol.Diagnostic{}}

	prog, table, err := compiler.Check(text)
	if err == nil {
		doc.prog, doc.table = prog, table
		return doc
	}
	if prev != nil {
		doc.prog, doc.table = prev.prog, prev.table
	}

	var diag *compiler.DiagnosticsError
	if !errors.As(err, &diag) {
		doc.diags = append(doc.diags, newDiagnostic(0, 0, err.Error()))
		return doc
	}
	for _, msg := range diag.Messages {
		line, col := 0, 0
		if m := diagRE.FindStringSubmatch(msg); m != nil {
			line, _ = strconv.Atoi(m[1])
			line--
			if m[2] != "" {
				col, _ = strconv.Atoi(m[2])
				col--
			}
			msg = m[3]
		}
		doc.diags = append(doc.diags, newDiagnostic(line, col, fmt.Sprintf("%s: %s", diag.Stage, msg)))
	}
	return doc
}

func newDiagnostic(line, col int, msg string) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := lspName
	pos := protocol.Position{Line: uint32(max(line, 0)), Character: uint32(max(col, 0))}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: pos, End: pos},
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

func complete(doc *document, prefix string, methodsOnly bool) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)
	add := func(label, detail string, kind protocol.CompletionItemKind) {
		if !strings.HasPrefix(strings.ToLower(label), lowerPrefix) {
			return
		}
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}

	if doc.table != nil {
		seen := make(map[string]bool)
		for _, cls := range doc.table.Classes() {
			if !methodsOnly {
				detail := "class"
				if cls.Superclass != "" {
					detail = "class extends " + cls.Superclass
				}
				add(cls.Name, detail, protocol.CompletionItemKindClass)
			}
			for _, m := range cls.Methods {
				if cls.Main || seen[m.Name] {
					continue
				}
				seen[m.Name] = true
				add(m.Name, signature(m), protocol.CompletionItemKindMethod)
			}
		}
	}

	if !methodsOnly {
		for _, kw := range keywords {
			add(kw, "keyword", protocol.CompletionItemKindKeyword)
		}
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

func hover(doc *document, word string) *protocol.Hover {
	if doc.table == nil {
		return nil
	}

	var b strings.Builder
	if cls, ok := doc.table.Class(word); ok {
		fmt.Fprintf(&b, "**class %s**", cls.Name)
		if cls.Superclass != "" {
			fmt.Fprintf(&b, " extends %s", cls.Superclass)
		}
		b.WriteString("\n\n")

		if len(cls.Fields) > 0 {
			b.WriteString("Fields:\n")
			for _, f := range cls.Fields {
				fmt.Fprintf(&b, "- `%s %s`\n", f.Type, f.Name)
			}
			b.WriteString("\n")
		}
		if len(cls.Methods) > 0 {
			b.WriteString("Methods:\n")
			for _, m := range cls.Methods {
				fmt.Fprintf(&b, "- `%s`\n", signature(m))
			}
		}
		return markdown(b.String())
	}

	// Otherwise a method name: every declaration plus its bytecode
	var methods []*compiler.Method
	for _, cls := range doc.table.Classes() {
		if m, ok := cls.Method(word); ok {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return nil
	}

	prog := generate(doc)
	for _, m := range methods {
		fmt.Fprintf(&b, "`%s`\n\n", signature(m))
		if prog == nil {
			continue
		}
		if code, ok := prog.Method(m.QualifiedName()); ok {
			b.WriteString("```\n")
			for i, in := range code.Code {
				fmt.Fprintf(&b, "%d:  %s\n", i, in)
			}
			b.WriteString("```\n\n")
		}
	}
	return markdown(strings.TrimRight(b.String(), "\n"))
}

// generate compiles the document's last good analysis, or returns nil.
func generate(doc *document) *bytecode.Program {
	if doc.prog == nil {
		return nil
	}
	cfg, err := ir.Build(doc.prog)
	if err != nil {
		return nil
	}
	prog, err := bytecode.Generate(cfg, doc.table)
	if err != nil {
		return nil
	}
	return prog
}

func definition(uri protocol.DocumentUri, doc *document, word string) []protocol.Location {
	if doc.prog == nil {
		return nil
	}

	var locations []protocol.Location
	if mc := doc.prog.Main; mc != nil && mc.Name == word {
		locations = append(locations, location(uri, mc.Span()))
	}
	for _, cd := range doc.prog.Classes {
		if cd.Name == word {
			locations = append(locations, location(uri, cd.Span()))
		}
		for _, md := range cd.Methods {
			if md.Name == word {
				locations = append(locations, location(uri, md.Span()))
			}
		}
	}
	return locations
}

// references returns every whole-word occurrence of word in text.
func references(uri protocol.DocumentUri, text, word string) []protocol.Location {
	var locations []protocol.Location
	for n, line := range strings.Split(text, "\n") {
		for from := 0; ; {
			i := strings.Index(line[from:], word)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(word)
			from = end
			if start > 0 && isIdentChar(rune(line[start-1])) {
				continue
			}
			if end < len(line) && isIdentChar(rune(line[end])) {
				continue
			}
			locations = append(locations, protocol.Location{
				URI: uri,
				Range: protocol.Range{
					Start: protocol.Position{Line: uint32(n), Character: uint32(start)},
					End:   protocol.Position{Line: uint32(n), Character: uint32(end)},
				},
			})
		}
	}
	return locations
}

func signature(m *compiler.Method) string {
	ret := "void"
	if m.ReturnType != nil {
		ret = m.ReturnType.String()
	}
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type.String() + " " + p.Name
	}
	return fmt.Sprintf("%s %s(%s)", ret, m.QualifiedName(), strings.Join(params, ", "))
}

func location(uri protocol.DocumentUri, span compiler.Span) protocol.Location {
	return protocol.Location{
		URI: uri,
		Range: protocol.Range{
			Start: lspPosition(span.Start),
			End:   lspPosition(span.End),
		},
	}
}

func lspPosition(p compiler.Position) protocol.Position {
	return protocol.Position{Line: uint32(max(p.Line-1, 0)), Character: uint32(max(p.Column-1, 0))}
}

func markdown(s string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: s,
		},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// --- Text extraction helpers ---

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// cursorLine returns the line under pos and the column clamped to it.
func cursorLine(text string, pos protocol.Position) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", 0, false
	}
	line := lines[pos.Line]
	return line, min(int(pos.Character), len(line)), true
}

// extractPrefix returns the identifier fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isIdentChar(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// charBefore returns the character left of the cursor, or 0.
func charBefore(text string, pos protocol.Position) byte {
	line, col, ok := cursorLine(text, pos)
	if !ok || col == 0 {
		return 0
	}
	return line[col-1]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}

	start := col
	for start > 0 && isIdentChar(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isIdentChar(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
