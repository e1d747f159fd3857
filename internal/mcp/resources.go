package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

var errNoIdentity = errors.New("no authenticated user")

func (h *handlers) dashboard(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return nil, errNoIdentity
	}
	d, err := h.ds.Dashboard(ctx, uid)
	if err != nil {
		return nil, err
	}
	return jsonContents(req, d)
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return nil, errNoIdentity
	}
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	workouts, err := h.ds.ListWorkouts(ctx, uid, start, end)
	if err != nil {
		return nil, err
	}
	return jsonContents(req, workouts)
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, ok := h.caller(ctx)
	if !ok {
		return nil, errNoIdentity
	}
	list, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		return nil, err
	}
	return jsonContents(req, list)
}

func jsonContents(req mcp.ReadResourceRequest, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
