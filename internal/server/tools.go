package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// regionSchema describes an optional x1/y1/x2/y2 rectangle argument.
func regionSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

var pathSchema = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "plate_rectify",
			Description: "Produce a license plate image from a detector box. Confident boxes are cropped directly; " +
				"otherwise the plate is cropped around the largest text region (mode crop) or its outline is " +
				"reconstructed from straight lines and warped fronto-parallel (mode rectify). Returns the outcome " +
				"and the plate as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema,
					"box":  regionSchema("Detector bounding box in pixels (x2, y2 exclusive)"),
					"confidence": map[string]interface{}{
						"type":        "number",
						"description": "Detector confidence in [0, 1]",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"crop", "rectify"},
						"description": "Low-confidence strategy. Defaults to the server configuration.",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to also write the plate image to",
					},
				},
				"required": []string{"path", "box", "confidence"},
			},
		},
		{
			Name:        "plate_detect_lines",
			Description: "Extract, merge and classify straight lines in an image or region. Returns horizontal and vertical segments in image coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathSchema,
					"region": regionSchema("Optional region to analyze; defaults to the whole image"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_find_corners",
			Description: "Reconstruct the plate quadrilateral from line evidence. Returns the canonical corners (TL, TR, BR, BL) and how many rectangle hypotheses were considered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathSchema,
					"region": regionSchema("Optional region to analyze; defaults to the whole image"),
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
