package batch

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/pipeline"
)

// Item is one image to process with its detector output.
type Item struct {
	File      string             `json:"file"`
	Detection pipeline.Detection `json:"detection"`
}

// LoadManifest reads a manifest file; see ParseManifest.
func LoadManifest(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open manifest")
	}
	defer f.Close()
	return ParseManifest(f)
}

// ParseManifest decodes either manifest form:
//
//	{"images": [{"file": "a.jpg", "box": [x1, y1, x2, y2], "confidence": 0.82}]}
//	{"a.jpg": [[x1, y1, x2, y2, conf], ...]}
//
// In the second form the highest-confidence box of each file is used and
// files are ordered by name.
func ParseManifest(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	if raw, ok := top["images"]; ok && isObjectList(raw) {
		return parseList(raw)
	}
	return parseMap(top)
}

// isObjectList tells the list form's "images" array apart from a map-form
// entry for a file named "images".
func isObjectList(raw json.RawMessage) bool {
	var elems []json.RawMessage
	if json.Unmarshal(raw, &elems) != nil {
		return false
	}
	return len(elems) == 0 || bytes.HasPrefix(bytes.TrimSpace(elems[0]), []byte("{"))
}

type listEntry struct {
	File       string    `json:"file"`
	Box        []float64 `json:"box"`
	Confidence float64   `json:"confidence"`
}

func parseList(raw json.RawMessage) ([]Item, error) {
	var entries []listEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest images")
	}
	items := make([]Item, 0, len(entries))
	for i, e := range entries {
		if e.File == "" {
			return nil, errors.Errorf("manifest image %d: missing file", i)
		}
		box, err := toRect(e.Box)
		if err != nil {
			return nil, errors.Wrapf(err, "manifest image %s", e.File)
		}
		items = append(items, Item{File: e.File, Detection: pipeline.Detection{Box: box, Confidence: e.Confidence}})
	}
	return items, nil
}

func parseMap(top map[string]json.RawMessage) ([]Item, error) {
	files := make([]string, 0, len(top))
	for f := range top {
		files = append(files, f)
	}
	sort.Strings(files)

	items := make([]Item, 0, len(files))
	for _, f := range files {
		var boxes [][]float64
		if err := json.Unmarshal(top[f], &boxes); err != nil {
			return nil, errors.Wrapf(err, "manifest image %s", f)
		}
		if len(boxes) == 0 {
			return nil, errors.Errorf("manifest image %s: no boxes", f)
		}

		best := -1
		for i, b := range boxes {
			if len(b) != 5 {
				return nil, errors.Errorf("manifest image %s: box %d needs [x1, y1, x2, y2, conf], got %d values", f, i, len(b))
			}
			if best < 0 || b[4] > boxes[best][4] {
				best = i
			}
		}
		box, err := toRect(boxes[best][:4])
		if err != nil {
			return nil, errors.Wrapf(err, "manifest image %s", f)
		}
		items = append(items, Item{File: f, Detection: pipeline.Detection{Box: box, Confidence: boxes[best][4]}})
	}
	return items, nil
}

func toRect(v []float64) (image.Rectangle, error) {
	if len(v) != 4 {
		return image.Rectangle{}, errors.Errorf("box needs 4 values, got %d", len(v))
	}
	return image.Rect(
		int(math.Floor(v[0])), int(math.Floor(v[1])),
		int(math.Ceil(v[2])), int(math.Ceil(v[3])),
	), nil
}
