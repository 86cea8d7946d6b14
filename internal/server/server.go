// Package server exposes a workspace over HTTP: the feature editor, the
// drawing toolkit, import/export, and a server-sent event stream.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/workspace"
)

// Server serves one workspace.
type Server struct {
	ws     *workspace.Workspace
	hub    *eventHub
	logger *slog.Logger
}

// New returns a Server for ws. Wire Publisher into the workspace's
// publisher chain so store changes reach SSE clients.
func New(ws *workspace.Workspace, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ws:     ws,
		hub:    newEventHub(),
		logger: logger,
	}
}

// SetWorkspace attaches the workspace after construction, for callers that
// need the server's publisher to build it.
func (s *Server) SetWorkspace(ws *workspace.Workspace) {
	s.ws = ws
}

// Publisher returns an events.Publisher that broadcasts to SSE clients.
func (s *Server) Publisher() events.Publisher {
	return hubPublisher{s}
}

type hubPublisher struct{ s *Server }

func (p hubPublisher) Publish(_ context.Context, topic string, event any) error {
	p.s.broadcastEvent(topic, event)
	return nil
}

func (hubPublisher) Close() error { return nil }

// broadcastEvent fans out an event to SSE clients.
func (s *Server) broadcastEvent(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	s.hub.broadcast(topic, payload)
}
