package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURI = "file:///project/schema.dbml"

const shopSchema = `Table users as U {
  id int [pk]
  name varchar [not null, note: 'display name']
}

Table orders {
  id int [pk]
  user_id int [ref: > users.id]
}

Enum order_status {
  pending
  shipped
}
`

// frame encodes one JSON-RPC message with its Content-Length header. A
// zero id makes a notification.
func frame(t *testing.T, id int, method string, params any) string {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "method": method}
	if id != 0 {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

// session runs the server over the given frames and returns every message
// it wrote.
func session(t *testing.T, frames ...string) []JSONRPCMessage {
	t.Helper()
	var out bytes.Buffer
	srv := NewServer(strings.NewReader(strings.Join(frames, "")), &out)
	require.NoError(t, srv.Run())

	reader := NewServer(&out, io.Discard)
	var msgs []JSONRPCMessage
	for {
		msg, err := reader.readMessage()
		if err != nil {
			break
		}
		msgs = append(msgs, *msg)
	}
	return msgs
}

func responseFor(t *testing.T, msgs []JSONRPCMessage, id int) JSONRPCMessage {
	t.Helper()
	want := fmt.Sprintf("%d", id)
	for _, m := range msgs {
		if m.ID != nil && string(*m.ID) == want {
			return m
		}
	}
	t.Fatalf("no response for id %d", id)
	return JSONRPCMessage{}
}

func notifications(msgs []JSONRPCMessage, method string) []JSONRPCMessage {
	var out []JSONRPCMessage
	for _, m := range msgs {
		if m.ID == nil && m.Method == method {
			out = append(out, m)
		}
	}
	return out
}

// openServer returns a server holding one open document.
func openServer(t *testing.T, content string) *Server {
	t.Helper()
	s := NewServer(strings.NewReader(""), io.Discard)
	s.documents.Open(testURI, content, 1)
	s.publishDiagnostics(testURI)
	return s
}

// positionOf returns the position of the nth occurrence of needle plus
// shift characters.
func positionOf(t *testing.T, content, needle string, nth, shift int) Position {
	t.Helper()
	offset := -1
	for i := 0; i <= nth; i++ {
		next := strings.Index(content[offset+1:], needle)
		require.GreaterOrEqual(t, next, 0, "occurrence %d of %q", i, needle)
		offset += next + 1
	}
	return newDocument("", content, 0).OffsetToPosition(offset + shift)
}

func TestServer_Initialize(t *testing.T) {
	msgs := session(t,
		frame(t, 1, "initialize", InitializeParams{RootURI: "file:///project"}),
		frame(t, 0, "initialized", map[string]any{}),
		frame(t, 2, "shutdown", nil),
		frame(t, 0, "exit", nil),
	)

	resp := responseFor(t, msgs, 1)
	require.Nil(t, resp.Error)

	var result InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.Capabilities.HoverProvider)
	assert.True(t, result.Capabilities.DefinitionProvider)
	assert.True(t, result.Capabilities.ReferencesProvider)
	assert.True(t, result.Capabilities.DocumentSymbolProvider)
	require.NotNil(t, result.Capabilities.CompletionProvider)
	assert.Contains(t, result.Capabilities.CompletionProvider.TriggerCharacters, ".")
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, "leapdbml", result.ServerInfo.Name)

	shutdown := responseFor(t, msgs, 2)
	assert.Nil(t, shutdown.Error)
}

func TestServer_UnknownMethod(t *testing.T) {
	msgs := session(t, frame(t, 7, "workspace/symbol", map[string]any{"query": ""}))

	resp := responseFor(t, msgs, 7)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestServer_RequestsAfterShutdown(t *testing.T) {
	msgs := session(t,
		frame(t, 1, "shutdown", nil),
		frame(t, 2, "textDocument/hover", HoverParams{}),
	)

	resp := responseFor(t, msgs, 2)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidRequest, resp.Error.Code)
}

func TestServer_PublishesDiagnosticsOnOpenAndChange(t *testing.T) {
	broken := "Table users {\n  id int [uniqe]\n}\n"
	msgs := session(t,
		frame(t, 0, "textDocument/didOpen", DidOpenTextDocumentParams{
			TextDocument: TextDocumentItem{URI: testURI, LanguageID: "dbml", Version: 1, Text: broken},
		}),
		frame(t, 0, "textDocument/didChange", DidChangeTextDocumentParams{
			TextDocument:   VersionedTextDocumentIdentifier{TextDocumentIdentifier: TextDocumentIdentifier{URI: testURI}, Version: 2},
			ContentChanges: []TextDocumentContentChangeEvent{{Text: shopSchema}},
		}),
		frame(t, 0, "textDocument/didClose", DidCloseTextDocumentParams{
			TextDocument: TextDocumentIdentifier{URI: testURI},
		}),
	)

	published := notifications(msgs, "textDocument/publishDiagnostics")
	require.Len(t, published, 3)

	var first PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal(published[0].Params, &first))
	assert.Equal(t, testURI, first.URI)
	assert.Equal(t, 1, first.Version)
	require.Len(t, first.Diagnostics, 1)
	d := first.Diagnostics[0]
	assert.Equal(t, "E3202", d.Code)
	assert.Equal(t, DiagnosticSeverityError, d.Severity)
	assert.Equal(t, "leapdbml", d.Source)
	assert.Contains(t, d.Message, "did you mean 'unique'?")
	assert.Equal(t, Range{Start: Position{Line: 1, Character: 10}, End: Position{Line: 1, Character: 15}}, d.Range)

	var second PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal(published[1].Params, &second))
	assert.Equal(t, 2, second.Version)
	assert.Empty(t, second.Diagnostics)

	var closed PublishDiagnosticsParams
	require.NoError(t, json.Unmarshal(published[2].Params, &closed))
	assert.Empty(t, closed.Diagnostics)
}

func TestServer_ParseErrorResponse(t *testing.T) {
	body := "{not json"
	raw := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
	msgs := session(t, raw)

	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Error)
	assert.Equal(t, codeParseError, msgs[0].Error.Code)
}

func TestReadMessage_HeaderCase(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"initialized"}`
	raw := fmt.Sprintf("content-length: %d\r\nContent-Type: application/vscode-jsonrpc\r\n\r\n%s", len(body), body)
	s := NewServer(strings.NewReader(raw), io.Discard)

	msg, err := s.readMessage()
	require.NoError(t, err)
	assert.Equal(t, "initialized", msg.Method)
}
