package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/behole/scribble/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for scribble resources.
	uriScheme = "scribble://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource listing every digest.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "digests",
		Name:        "digests",
		Description: "All generated digests, newest first",
		MIMEType:    "application/json",
	}, s.handleDigestsResource)

	// Template for one digest body.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "digests/{id}",
		Name:        "digest",
		Description: "Markdown body of a generated digest",
		MIMEType:    "text/markdown",
	}, s.handleDigestResource)
}

// handleDigestsResource lists digests without their bodies.
func (s *Server) handleDigestsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	digests, err := s.ports.Library.Digests(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing digests: %w", err)
	}

	type digestInfo struct {
		ID          string `json:"id"`
		Kind        string `json:"kind"`
		URI         string `json:"uri"`
		PeriodStart string `json:"period_start,omitempty"`
		PeriodEnd   string `json:"period_end,omitempty"`
		CreatedAt   string `json:"created_at"`
	}

	infos := make([]digestInfo, len(digests))
	for i := range digests {
		d := &digests[i]
		infos[i] = digestInfo{
			ID:          d.ID,
			Kind:        string(d.Kind),
			URI:         uriScheme + "digests/" + d.ID,
			PeriodStart: timestamp(d.PeriodStart),
			PeriodEnd:   timestamp(d.PeriodEnd),
			CreatedAt:   timestamp(d.CreatedAt),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling digests: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDigestResource returns the Markdown body of one digest.
func (s *Server) handleDigestResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract the id from URI: scribble://digests/{id}
	digestID := extractDigestID(req.Params.URI)
	if digestID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	d, err := s.ports.Library.GetDigest(ctx, digestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting digest: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     d.Body,
		}},
	}, nil
}

// extractDigestID extracts the digest ID from a URI like scribble://digests/{id}.
func extractDigestID(uri string) string {
	const prefix = uriScheme + "digests/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
