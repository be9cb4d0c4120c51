// Package mcp exposes the interpreter to authoring clients over the Model
// Context Protocol: previewing choices and inputs, rendering expression
// templates, and running integrity checks without a play shell.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"fabula/internal/engine"
	"fabula/internal/story"
)

// Store is the persistence surface the server needs: everything the engine
// reads plus the world catalog and validation queries.
type Store interface {
	engine.Storyworld
	Worlds(ctx context.Context) ([]story.World, error)
	Events(ctx context.Context, worldID string) ([]story.Event, error)
	Paths(ctx context.Context, worldID string) ([]story.Path, error)
	RecentLiveEvents(ctx context.Context, worldID, version string, limit int) ([]story.LiveEvent, error)
}

type Server struct {
	db     Store
	engine *engine.Engine
	mcp    *sdk.Server
}

func NewServer(db Store, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:     db,
		engine: eng,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "fabula",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
