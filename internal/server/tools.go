package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "imagefit_render",
			Description: "Resize or crop an image to a size specification or named preset and return the encoded result as base64. The output format follows the file extension.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProperty("Image path relative to the root directory"),
					"size": stringProperty("Preset name or specification: WIDTHxHEIGHT, optionally followed by ',C' to crop or ',B[,RRGGBB]' to pad (e.g. '200x100,C')"),
					"root": stringProperty("Optional root name (e.g. 'media_resize'). Defaults to the main root"),
					"include_data": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the base64-encoded image in the result. Default true",
						"default":     true,
					},
				},
				"required": []string{"path", "size"},
			},
		},
		{
			Name:        "imagefit_resolve",
			Description: "Resolve a size specification or preset name into its width, height, fit strategy and fill colour without rendering anything.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"size": stringProperty("Preset name or specification such as '200x100,C'"),
				},
				"required": []string{"size"},
			},
		},
		{
			Name:        "imagefit_presets",
			Description: "List the configured presets and the directive each one resolves to.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "imagefit_info",
			Description: "Report the dimensions, detected format and colour space of a source image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProperty("Image path relative to the root directory"),
					"root": stringProperty("Optional root name. Defaults to the main root"),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
