package server

import (
	"encoding/json"
	"image"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
	"github.com/ironsheep/plate-rectify/internal/imaging"
	"github.com/ironsheep/plate-rectify/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_rectify").
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
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool failed")
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
	case "plate_rectify":
		return s.handlePlateRectify(args)
	case "plate_detect_lines":
		return s.handlePlateDetectLines(args)
	case "plate_find_corners":
		return s.handlePlateFindCorners(args)
	default:
		return nil, errors.Errorf("unknown tool: %s", name)
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

// regionArgs is the JSON form of a pixel rectangle.
type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r regionArgs) rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// subImage returns the part of img inside region, or img itself when region
// is nil.
func subImage(img image.Image, region *regionArgs) (image.Image, error) {
	if region == nil {
		return img, nil
	}
	r := region.rect()
	if !r.Overlaps(img.Bounds()) {
		return nil, errors.Errorf("region %v outside image bounds %v", r, img.Bounds())
	}
	return imaging.Region(img, r), nil
}

// === Plate Handlers ===

type plateRectifyArgs struct {
	Path       string     `json:"path"`
	Box        regionArgs `json:"box"`
	Confidence float64    `json:"confidence"`
	Mode       string     `json:"mode"`
	OutputPath string     `json:"output_path"`
}

// PlateResult is the plate_rectify response.
type PlateResult struct {
	ID      string              `json:"id"`
	State   pipeline.State      `json:"state"`
	Method  pipeline.Method     `json:"method,omitempty"`
	Trail   []pipeline.State    `json:"trail"`
	Width   int                 `json:"width,omitempty"`
	Height  int                 `json:"height,omitempty"`
	Corners *geometry.CornerSet `json:"corners,omitempty"`
	Crop    *regionArgs         `json:"crop,omitempty"`
	Reason  string              `json:"reason,omitempty"`
	Output  string              `json:"output_path,omitempty"`
	Image   string              `json:"image,omitempty"`
}

func (s *Server) handlePlateRectify(args json.RawMessage) (interface{}, error) {
	var a plateRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mode := s.mode
	if a.Mode != "" {
		mode = pipeline.Mode(a.Mode)
	}
	engine, ok := s.engines[mode]
	if !ok {
		return nil, errors.Errorf("unknown mode %q", a.Mode)
	}

	img, err := imaging.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := engine.Rectify(img, pipeline.Detection{Box: a.Box.rect(), Confidence: a.Confidence})
	if err != nil {
		return nil, err
	}

	out := PlateResult{
		ID:      res.ID.String(),
		State:   res.State,
		Method:  res.Method,
		Trail:   res.Trail,
		Corners: res.Corners,
	}
	if res.State == pipeline.StateMissed {
		out.Reason = res.Reason.Error()
		return out, nil
	}

	b := res.Image.Bounds()
	out.Width, out.Height = b.Dx(), b.Dy()
	out.Crop = &regionArgs{X1: res.Crop.Min.X, Y1: res.Crop.Min.Y, X2: res.Crop.Max.X, Y2: res.Crop.Max.Y}
	if out.Image, err = imaging.EncodePNGBase64(res.Image); err != nil {
		return nil, err
	}
	if a.OutputPath != "" {
		if err := imaging.Save(a.OutputPath, res.Image); err != nil {
			return nil, err
		}
		out.Output = a.OutputPath
	}
	return out, nil
}

type plateRegionArgs struct {
	Path   string      `json:"path"`
	Region *regionArgs `json:"region"`
}

// LinesResult is the plate_detect_lines response.
type LinesResult struct {
	Segments   int                `json:"segments"`
	Horizontal []geometry.Segment `json:"horizontal"`
	Vertical   []geometry.Segment `json:"vertical"`
}

func (s *Server) handlePlateDetectLines(args json.RawMessage) (interface{}, error) {
	var a plateRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a)
	if err != nil {
		return nil, err
	}

	out := LinesResult{Horizontal: []geometry.Segment{}, Vertical: []geometry.Segment{}}
	segments, lines, err := s.engines[s.mode].DetectLines(img)
	if errors.Is(err, pipeline.ErrNoEvidence) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.Segments = len(segments)
	out.Horizontal = segmentsOf(lines.Horizontal)
	out.Vertical = segmentsOf(lines.Vertical)
	return out, nil
}

func segmentsOf(lines []detection.OrientedLine) []geometry.Segment {
	out := make([]geometry.Segment, len(lines))
	for i, l := range lines {
		out[i] = l.Segment
	}
	return out
}

// CornersResult is the plate_find_corners response.
type CornersResult struct {
	Found      bool                `json:"found"`
	Corners    *geometry.CornerSet `json:"corners,omitempty"`
	Lines      []int               `json:"lines,omitempty"`
	Area       float64             `json:"area,omitempty"`
	Aspect     float64             `json:"aspect,omitempty"`
	Candidates int                 `json:"candidates"`
	Accepted   int                 `json:"accepted"`
	Reason     string              `json:"reason,omitempty"`
}

func (s *Server) handlePlateFindCorners(args json.RawMessage) (interface{}, error) {
	var a plateRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a)
	if err != nil {
		return nil, err
	}

	sel, err := s.engines[s.mode].FindCorners(img)
	switch {
	case errors.Is(err, pipeline.ErrNoEvidence),
		errors.Is(err, pipeline.ErrNoValidQuadrilateral),
		errors.Is(err, pipeline.ErrDegenerateGeometry):
		return CornersResult{Reason: err.Error()}, nil
	case err != nil:
		return nil, err
	}
	return CornersResult{
		Found:      true,
		Corners:    &sel.Corners,
		Lines:      sel.Hypothesis.IDs(),
		Area:       sel.Hypothesis.Area,
		Aspect:     sel.Hypothesis.Aspect,
		Candidates: sel.Candidates,
		Accepted:   sel.Accepted,
	}, nil
}

func (s *Server) loadRegion(a plateRegionArgs) (image.Image, error) {
	img, err := imaging.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return subImage(img, a.Region)
}
