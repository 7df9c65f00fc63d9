package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/snaptheplant/fieldguide/pkg/catalog"
	"github.com/snaptheplant/fieldguide/pkg/matcher"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

const (
	serverName    = "fieldguide"
	serverVersion = "0.1.0"

	// maxMatches caps match_species output
	maxMatches = 10
)

// Server exposes the species catalog to MCP clients. It never runs image
// analysis, so calls are not rate limited.
type Server struct {
	catalog *catalog.Catalog
	server  *mcp.Server
}

// NewServer creates a server with list_categories, search_species and
// match_species registered
func NewServer(cat *catalog.Catalog) *Server {
	s := &Server{
		catalog: cat,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List species categories and the attribute questions used to match each of them",
	}, s.listCategories)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_species",
		Description: "Search the species catalog by common name, scientific name or numeric id",
	}, s.searchSpecies)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "match_species",
		Description: "Rank species of a category by agreement with observed attributes, best match first",
	}, s.matchSpecies)

	return s
}

// Run serves on stdin/stdout until ctx is canceled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	logging.From(ctx).Info("starting MCP server", "transport", "stdio", "species", s.catalog.Len())
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server failed")
	}
	return nil
}

// Handler returns a streamable HTTP handler serving the same tools
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to encode tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}, nil, nil
}

func errorResult(err error) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
	}, nil, nil
}

type categoryInfo struct {
	Name      model.Category             `json:"name"`
	Species   int                        `json:"species"`
	Questions []*model.AttributeQuestion `json:"questions"`
}

type listCategoriesParams struct{}

func (s *Server) listCategories(ctx context.Context, req *mcp.CallToolRequest, params *listCategoriesParams) (*mcp.CallToolResult, any, error) {
	var out []*categoryInfo
	for _, c := range model.Categories() {
		out = append(out, &categoryInfo{
			Name:      c,
			Species:   len(s.catalog.InCategory(c)),
			Questions: model.Vocabulary(c),
		})
	}
	return jsonResult(out)
}

type searchSpeciesParams struct {
	Query    string `json:"query" jsonschema:"Common name, scientific name or catalog id to look for"`
	Category string `json:"category,omitempty" jsonschema:"Optional category to restrict the search to"`
}

func (s *Server) searchSpecies(ctx context.Context, req *mcp.CallToolRequest, params *searchSpeciesParams) (*mcp.CallToolResult, any, error) {
	var category *model.Category
	if params.Category != "" {
		c, err := model.ParseCategory(params.Category)
		if err != nil {
			return errorResult(err)
		}
		category = &c
	}

	found := s.catalog.SearchByText(params.Query, category)
	logging.From(ctx).Debug("search_species", "query", params.Query, "found", len(found))
	return jsonResult(found)
}

type matchSpeciesParams struct {
	Category   string            `json:"category" jsonschema:"Category to rank, e.g. Plant or Insect"`
	Attributes map[string]string `json:"attributes" jsonschema:"Observed attribute values keyed by question key, as listed by list_categories"`
}

func (s *Server) matchSpecies(ctx context.Context, req *mcp.CallToolRequest, params *matchSpeciesParams) (*mcp.CallToolResult, any, error) {
	category, err := model.ParseCategory(params.Category)
	if err != nil {
		return errorResult(err)
	}

	candidates := matcher.Match(s.catalog.InCategory(category), category, params.Attributes)
	return jsonResult(matcher.Top(candidates, maxMatches))
}
