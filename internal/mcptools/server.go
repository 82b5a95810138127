// Package mcptools exposes the read-only query surface of analysed code
// models as MCP tools.
package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewModelMCPServer creates an MCP server with all 7 code model tools registered.
func NewModelMCPServer(svc *ModelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codemodel",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_file",
		Description: "Parse a source file and build its semantic model: libraries, informations, treatments, control structures and comments. Must be called before the other tools for that file.",
	}, svc.AnalyzeFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_informations",
		Description: "List the informations (constants, magic numbers, simple and structured variables) of an analysed file, optionally filtered by category and sorted alphabetically.",
	}, svc.ListInformations)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_treatments",
		Description: "List the treatments of an analysed file with their role, sub-treatments, sequencing, data and results.",
	}, svc.ListTreatments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_comments",
		Description: "List the comments of an analysed file, optionally only those about the code, an information or a treatment.",
	}, svc.ListComments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_libraries",
		Description: "List the libraries imported by an analysed file.",
	}, svc.ListLibraries)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "nested_structures",
		Description: "Find control structures of one kind nested inside structures of another kind, for example a conditional inside an iterative structure.",
	}, svc.NestedStructures)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "model_stats",
		Description: "Return per-category counts of an analysed file.",
	}, svc.ModelStats)

	return server
}

// RunMCPServer starts an HTTP server exposing the code model MCP tools.
func RunMCPServer(ctx context.Context, svc *ModelService, addr string) error {
	server := NewModelMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *ModelService) error {
	return NewModelMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
