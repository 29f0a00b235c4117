package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"plate_rectify",
		"plate_detect_lines",
		"plate_find_corners",
	}
	if len(tools) != len(expectedTools) {
		t.Fatalf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema missing 'properties' map")
			}

			// Every required parameter must be declared.
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			hasPath := false
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required parameter %q not in properties", r)
				}
				if r == "path" {
					hasPath = true
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

func TestToolDefinitions_RectifyModes(t *testing.T) {
	var rectify Tool
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "plate_rectify" {
			rectify = tool
		}
	}

	props := rectify.InputSchema["properties"].(map[string]interface{})
	mode := props["mode"].(map[string]interface{})
	modes := mode["enum"].([]string)
	if len(modes) != 2 || modes[0] != "crop" || modes[1] != "rectify" {
		t.Errorf("mode enum: got %v", modes)
	}

	box := props["box"].(map[string]interface{})
	if req := box["required"].([]string); len(req) != 4 {
		t.Errorf("box should require 4 coordinates, got %v", req)
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
