package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/imagefit/internal/imaging"
	"github.com/ironsheep/imagefit/internal/preset"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "imagefit_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "imagefit_render":
		return s.handleRender(args)
	case "imagefit_resolve":
		return s.handleResolve(args)
	case "imagefit_presets":
		return s.handlePresets()
	case "imagefit_info":
		return s.handleInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// DirectiveResult describes a resolved size argument.
type DirectiveResult struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Strategy  string `json:"strategy"`
	Fill      string `json:"fill,omitempty"`
	Canonical string `json:"canonical"`
}

func directiveResult(d preset.Directive) DirectiveResult {
	r := DirectiveResult{
		Width:     d.Width,
		Height:    d.Height,
		Strategy:  d.Strategy().String(),
		Canonical: d.String(),
	}
	if d.Strategy() == preset.StrategyCropbox {
		r.Fill = d.Fill
	}
	return r
}

// === Render ===

type renderArgs struct {
	Path        string `json:"path"`
	Size        string `json:"size"`
	Root        string `json:"root"`
	IncludeData *bool  `json:"include_data"`
}

// RenderResult is returned by imagefit_render.
type RenderResult struct {
	Path        string `json:"path"`
	Size        string `json:"size"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bytes       int    `json:"bytes"`
	Cached      bool   `json:"cached"`
	CacheKey    string `json:"cache_key"`
	Data        string `json:"data,omitempty"`
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" || a.Size == "" {
		return nil, fmt.Errorf("path and size are required")
	}

	rend, err := s.renderer.Render(a.Root, a.Path, a.Size)
	if err != nil {
		return nil, err
	}

	result := RenderResult{
		Path:        a.Path,
		Size:        a.Size,
		Format:      rend.Format,
		ContentType: rend.ContentType,
		Width:       rend.Width,
		Height:      rend.Height,
		Bytes:       len(rend.Data),
		Cached:      rend.Cached,
		CacheKey:    rend.Key,
	}
	if a.IncludeData == nil || *a.IncludeData {
		result.Data = base64.StdEncoding.EncodeToString(rend.Data)
	}
	return result, nil
}

// === Resolve ===

type resolveArgs struct {
	Size string `json:"size"`
}

// ResolveResult is returned by imagefit_resolve.
type ResolveResult struct {
	Size      string          `json:"size"`
	Preset    bool            `json:"preset"`
	Directive DirectiveResult `json:"directive"`
}

func (s *Server) handleResolve(args json.RawMessage) (interface{}, error) {
	var a resolveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	resolver := s.renderer.Resolver()
	d, ok := resolver.Resolve(a.Size)
	if !ok {
		return nil, fmt.Errorf("%q is neither a preset nor a size specification", a.Size)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	return ResolveResult{
		Size:      a.Size,
		Preset:    resolver.Presets().Has(a.Size),
		Directive: directiveResult(d),
	}, nil
}

// === Presets ===

// PresetEntry is one element of the imagefit_presets result.
type PresetEntry struct {
	Name      string          `json:"name"`
	Directive DirectiveResult `json:"directive"`
}

func (s *Server) handlePresets() (interface{}, error) {
	table := s.renderer.Resolver().Presets()
	entries := make([]PresetEntry, 0, len(table))
	for _, name := range table.Names() {
		d, _ := table.Get(name)
		entries = append(entries, PresetEntry{Name: name, Directive: directiveResult(d)})
	}
	return map[string]interface{}{
		"count":   len(entries),
		"presets": entries,
	}, nil
}

// === Info ===

type infoArgs struct {
	Path string `json:"path"`
	Root string `json:"root"`
}

// InfoResult is returned by imagefit_info.
type InfoResult struct {
	Path       string    `json:"path"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Format     string    `json:"format"`
	ColorSpace string    `json:"color_space"`
	Modified   time.Time `json:"modified"`
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	var a infoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	full, err := s.renderer.SourcePath(a.Root, a.Path)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Load(full)
	if err != nil {
		return nil, err
	}

	return InfoResult{
		Path:       a.Path,
		Width:      src.Width(),
		Height:     src.Height(),
		Format:     src.Format,
		ColorSpace: src.ColorSpace.String(),
		Modified:   src.ModTime,
	}, nil
}
