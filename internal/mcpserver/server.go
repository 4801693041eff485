// Package mcpserver exposes the glossary and the live transcript to MCP
// clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/confersense/confersense/internal/daemon"
	"github.com/confersense/confersense/internal/glossary"
	"github.com/confersense/confersense/internal/language"
	"github.com/confersense/confersense/internal/transcript"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "confersense"

// Server wires glossary and daemon access into MCP tools.
type Server struct {
	store  glossary.Store
	caller daemon.Caller
	pair   language.Pair
	mcp    *server.MCPServer
}

// New builds the server. pair is the default scope for glossary tools when a
// call names no languages.
func New(store glossary.Store, caller daemon.Caller, pair language.Pair, version string) *Server {
	s := &Server{
		store:  store,
		caller: caller,
		pair:   pair,
		mcp:    server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("glossary_list",
		mcp.WithDescription("List glossary entries. With source and target, only entries for that pair plus wildcard entries."),
		mcp.WithString("source", mcp.Description("Source language code, e.g. ja")),
		mcp.WithString("target", mcp.Description("Target language code, e.g. en")),
	), s.glossaryList)

	s.mcp.AddTool(mcp.NewTool("glossary_add",
		mcp.WithDescription("Add a glossary entry so the term is always translated the same way."),
		mcp.WithString("term", mcp.Required(), mcp.Description("Term as the recognizer writes it")),
		mcp.WithString("translation", mcp.Description("Required rendering of the term")),
		mcp.WithString("source", mcp.Description("Source language code or *")),
		mcp.WithString("target", mcp.Description("Target language code or *")),
	), s.glossaryAdd)

	s.mcp.AddTool(mcp.NewTool("glossary_apply",
		mcp.WithDescription("Replace glossary terms in text the way recognized speech is corrected before translation."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to correct")),
		mcp.WithString("source", mcp.Description("Source language code")),
		mcp.WithString("target", mcp.Description("Target language code")),
	), s.glossaryApply)

	s.mcp.AddTool(mcp.NewTool("transcript",
		mcp.WithDescription("Read the running daemon's transcript, oldest first."),
		mcp.WithBoolean("final_only", mcp.Description("Skip entries whose translation is still streaming")),
	), s.transcript)

	s.mcp.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Report the daemon's session status."),
	), s.status)

	return s
}

// ServeStdio blocks serving MCP on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Printf("mcp: serving %s tools on stdio", serverName)
	return server.ServeStdio(s.mcp)
}

func (s *Server) scope(req mcp.CallToolRequest) (source, target string) {
	return req.GetString("source", s.pair.Source), req.GetString("target", s.pair.Target)
}

func (s *Server) glossaryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		entries []glossary.Entry
		err     error
	)
	source, target := req.GetString("source", ""), req.GetString("target", "")
	if source != "" || target != "" {
		entries, err = s.store.Lookup(ctx, source, target)
	} else {
		entries, err = s.store.List(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("glossary: %v", err)), nil
	}
	if entries == nil {
		entries = []glossary.Entry{}
	}
	return jsonResult(entries)
}

func (s *Server) glossaryAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term, err := req.RequireString("term")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, target := s.scope(req)
	e, err := s.store.Add(ctx, glossary.Entry{
		Term:        term,
		Replacement: req.GetString("translation", ""),
		SourceLang:  source,
		TargetLang:  target,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("glossary: %v", err)), nil
	}
	return jsonResult(e)
}

func (s *Server) glossaryApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, target := s.scope(req)
	entries, err := s.store.Lookup(ctx, source, target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("glossary: %v", err)), nil
	}
	return mcp.NewToolResultText(glossary.Apply(text, entries)), nil
}

func (s *Server) transcript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.caller == nil {
		return mcp.NewToolResultError("daemon connection not configured"), nil
	}
	entries, err := daemon.FetchLog(s.caller)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetBool("final_only", false) {
		final := entries[:0]
		for _, e := range entries {
			if e.IsFinal {
				final = append(final, e)
			}
		}
		entries = final
	}
	if entries == nil {
		entries = []transcript.Entry{}
	}
	return jsonResult(entries)
}

func (s *Server) status(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.caller == nil {
		return mcp.NewToolResultError("daemon connection not configured"), nil
	}
	r, err := daemon.FetchStatus(s.caller)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(r)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.New("encode result: " + err.Error())
	}
	return mcp.NewToolResultText(string(data)), nil
}
