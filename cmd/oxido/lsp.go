package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mgomes/oxido/oxido"
)

const (
	completionKindFunction = 3
	completionKindVariable = 6
	completionKindKeyword  = 14
)

type lspInboundMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type lspResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type lspOutboundMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *json.RawMessage  `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  any               `json:"params,omitempty"`
	Result  any               `json:"result,omitempty"`
	Error   *lspResponseError `json:"error,omitempty"`
}

type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

type lspDiagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity"`
	Code     string   `json:"code"`
	Source   string   `json:"source"`
	Message  string   `json:"message"`
}

type lspCompletionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind"`
	Detail string `json:"detail"`
}

type lspDidOpenParams struct {
	TextDocument struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	} `json:"textDocument"`
}

type lspDidChangeParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type lspTextDocumentPositionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position lspPosition `json:"position"`
}

type lspServer struct {
	reader *bufio.Reader
	writer *bufio.Writer
	engine *oxido.Engine
	docs   map[string]string
}

func newLSPServer(r io.Reader, w io.Writer) *lspServer {
	return &lspServer{
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
		engine: oxido.MustNewEngine(oxido.Config{DryRun: true}),
		docs:   make(map[string]string),
	}
}

func runLSP() error {
	return newLSPServer(os.Stdin, os.Stdout).serve()
}

func (s *lspServer) serve() error {
	for {
		payload, err := s.readPayload()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var incoming lspInboundMessage
		if err := json.Unmarshal(payload, &incoming); err != nil {
			continue
		}

		for _, msg := range s.handleMessage(incoming) {
			if err := s.writePayload(msg); err != nil {
				return err
			}
		}

		if incoming.Method == "exit" {
			return nil
		}
	}
}

func (s *lspServer) handleMessage(incoming lspInboundMessage) []lspOutboundMessage {
	switch incoming.Method {
	case "initialize":
		return reply(incoming, map[string]any{
			"capabilities": map[string]any{
				"textDocumentSync": 1,
				"hoverProvider":    true,
				"completionProvider": map[string]any{
					"resolveProvider": false,
				},
			},
			"serverInfo": map[string]any{"name": "oxido-lsp"},
		})
	case "initialized", "exit":
		return nil
	case "shutdown":
		return reply(incoming, nil)
	case "textDocument/didOpen":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return nil
		}
		s.docs[params.TextDocument.URI] = params.TextDocument.Text
		return []lspOutboundMessage{s.publishDiagnostics(params.TextDocument.URI)}
	case "textDocument/didChange":
		var params lspDidChangeParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil || len(params.ContentChanges) == 0 {
			return nil
		}
		s.docs[params.TextDocument.URI] = params.ContentChanges[len(params.ContentChanges)-1].Text
		return []lspOutboundMessage{s.publishDiagnostics(params.TextDocument.URI)}
	case "textDocument/didClose":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err == nil {
			delete(s.docs, params.TextDocument.URI)
		}
		return nil
	case "textDocument/completion":
		var params lspTextDocumentPositionParams
		_ = json.Unmarshal(incoming.Params, &params)
		return reply(incoming, map[string]any{
			"isIncomplete": false,
			"items":        s.completionItems(s.docs[params.TextDocument.URI]),
		})
	case "textDocument/hover":
		var params lspTextDocumentPositionParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return replyError(incoming, -32602, "invalid hover params")
		}
		source := s.docs[params.TextDocument.URI]
		word := wordAtPosition(source, params.Position.Line, params.Position.Character)
		if word == "" {
			return reply(incoming, nil)
		}
		return reply(incoming, map[string]any{
			"contents": map[string]any{
				"kind":  "markdown",
				"value": s.describeWord(source, word),
			},
		})
	default:
		return replyError(incoming, -32601, "method not found")
	}
}

func reply(incoming lspInboundMessage, result any) []lspOutboundMessage {
	if incoming.ID == nil {
		return nil
	}
	return []lspOutboundMessage{{JSONRPC: "2.0", ID: incoming.ID, Result: result}}
}

func replyError(incoming lspInboundMessage, code int, message string) []lspOutboundMessage {
	if incoming.ID == nil {
		return nil
	}
	return []lspOutboundMessage{{
		JSONRPC: "2.0",
		ID:      incoming.ID,
		Error:   &lspResponseError{Code: code, Message: message},
	}}
}

func (s *lspServer) publishDiagnostics(uri string) lspOutboundMessage {
	return lspOutboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: map[string]any{
			"uri":         uri,
			"diagnostics": diagnosticsForSource(s.engine, uri, s.docs[uri]),
		},
	}
}

// diagnosticsForSource compiles source and maps a failure onto an LSP range.
// Compilation stops at the first error, so there is at most one entry.
func diagnosticsForSource(engine *oxido.Engine, name, source string) []lspDiagnostic {
	_, err := engine.Compile(name, source)
	if err == nil {
		return []lspDiagnostic{}
	}
	diag := lspDiagnostic{Severity: 1, Source: "oxido", Message: err.Error()}
	var d *oxido.Diagnostic
	if errors.As(err, &d) {
		diag.Code = d.Code
		diag.Message = d.Message
		if d.Note != "" {
			diag.Message += ": " + d.Note
		}
		end := max(d.Span.End, d.Span.Start+1)
		diag.Range = lspRange{Start: offsetToPosition(source, d.Span.Start), End: offsetToPosition(source, end)}
	}
	return []lspDiagnostic{diag}
}

// offsetToPosition converts a byte offset to a zero-based line and UTF-16
// character index.
func offsetToPosition(source string, offset int) lspPosition {
	offset = min(max(offset, 0), len(source))
	prefix := source[:offset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	character := 0
	for _, r := range prefix[lineStart:] {
		character += utf16Len(r)
	}
	return lspPosition{Line: line, Character: character}
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func (s *lspServer) completionItems(source string) []lspCompletionItem {
	seen := make(map[string]struct{})
	var items []lspCompletionItem
	add := func(label string, kind int, detail string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		items = append(items, lspCompletionItem{Label: label, Kind: kind, Detail: detail})
	}

	for _, keyword := range replKeywords {
		add(keyword, completionKindKeyword, "keyword")
	}
	for _, builtin := range s.engine.Builtins() {
		add(builtin, completionKindFunction, "builtin")
	}
	symbols := collectSymbols(s.engine, source)
	for _, name := range sortedKeys(symbols.functions) {
		add(name, completionKindFunction, symbols.functions[name])
	}
	for _, name := range sortedKeys(symbols.variables) {
		add(name, completionKindVariable, symbols.variables[name])
	}

	slices.SortFunc(items, func(a, b lspCompletionItem) int {
		return strings.Compare(a.Label, b.Label)
	})
	return items
}

func (s *lspServer) describeWord(source, word string) string {
	symbols := collectSymbols(s.engine, source)
	switch {
	case slices.Contains(replKeywords, word):
		return fmt.Sprintf("`%s`\n\nOxido keyword", word)
	case isBuiltin(s.engine, word):
		return fmt.Sprintf("`%s`\n\nOxido builtin", word)
	}
	if sig, ok := symbols.functions[word]; ok {
		return fmt.Sprintf("```oxido\n%s\n```", sig)
	}
	if typ, ok := symbols.variables[word]; ok {
		return fmt.Sprintf("```oxido\nlet %s: %s\n```", word, typ)
	}
	return fmt.Sprintf("`%s`\n\nOxido symbol", word)
}

func isBuiltin(engine *oxido.Engine, name string) bool {
	_, ok := engine.Builtin(name)
	return ok
}

type documentSymbols struct {
	functions map[string]string
	variables map[string]string
}

// collectSymbols lists the functions and variables a document declares.
// Sources that do not compile have no symbols.
func collectSymbols(engine *oxido.Engine, source string) documentSymbols {
	symbols := documentSymbols{
		functions: make(map[string]string),
		variables: make(map[string]string),
	}
	if source == "" {
		return symbols
	}
	prog, err := engine.Compile("document", source)
	if err != nil {
		return symbols
	}
	var walk func([]oxido.Statement)
	walk = func(stmts []oxido.Statement) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *oxido.FunctionStmt:
				symbols.functions[s.Name] = functionSignature(s)
				for _, p := range s.Params {
					symbols.variables[p.Name] = p.Type.String()
				}
				walk(s.Body)
			case *oxido.AssignStmt:
				typ := "inferred"
				if s.Type != nil {
					typ = s.Type.String()
				}
				if _, ok := symbols.variables[s.Name]; !ok || s.Type != nil {
					symbols.variables[s.Name] = typ
				}
			case *oxido.IfStmt:
				walk(s.Body)
			case *oxido.IfElseStmt:
				walk(s.Then)
				walk(s.Else)
			case *oxido.LoopStmt:
				walk(s.Body)
			}
		}
	}
	walk(prog.Statements())
	return symbols
}

func functionSignature(fn *oxido.FunctionStmt) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name + ": " + p.Type.String()
	}
	sig := "fn " + fn.Name + "(" + strings.Join(params, ", ") + ")"
	if fn.ReturnType != nil {
		sig += ": " + fn.ReturnType.String()
	}
	return sig
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// wordAtPosition returns the identifier under a zero-based line and UTF-16
// character position, or the one ending just before it.
func wordAtPosition(source string, line, character int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}

	runes := []rune(strings.TrimRight(lines[line], "\r"))
	if len(runes) == 0 {
		return ""
	}

	cursor := 0
	for units := 0; cursor < len(runes) && units < max(character, 0); cursor++ {
		units += utf16Len(runes[cursor])
	}
	if cursor == len(runes) {
		cursor--
	}
	if !isWordRune(runes[cursor]) {
		if cursor > 0 && isWordRune(runes[cursor-1]) {
			cursor--
		} else {
			return ""
		}
	}

	start := cursor
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	end := cursor
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return string(runes[start:end])
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

func (s *lspServer) readPayload() ([]byte, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = n
		}
	}

	if contentLength < 0 {
		return nil, errors.New("missing Content-Length header")
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *lspServer) writePayload(msg lspOutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}
