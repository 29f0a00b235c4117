package ocr

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// TextBlock is a block-level text region reported by Tesseract.
type TextBlock struct {
	// Bounds is the block's bounding box in the source image.
	Bounds image.Rectangle `json:"bounds"`

	// Confidence is Tesseract's confidence that the block holds text (0.0
	// to 1.0).
	Confidence float64 `json:"confidence"`
}

// TesseractLocator finds text regions with Tesseract's page layout analysis.
//
// Only block positions are used; no text is recognized. A new Tesseract
// client is created per call, so one locator can serve concurrent callers.
type TesseractLocator struct {
	// Language is the Tesseract language code, "eng" when empty.
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// MinConfidence drops blocks scoring below this (0.0 to 1.0).
	MinConfidence float64
}

// NewTesseractLocator returns a locator for English text that accepts every
// block.
func NewTesseractLocator() *TesseractLocator {
	return &TesseractLocator{Language: "eng"}
}

// Blocks runs layout analysis on img and returns the text blocks at or
// above MinConfidence, in Tesseract's reading order.
//
// # Block-Level Detection
//
// Uses Tesseract's RIL_BLOCK iterator level, which groups text into
// paragraph-like blocks. Block coordinates are shifted into img's
// coordinate space, so SubImage regions report absolute positions.
func (l *TesseractLocator) Blocks(img image.Image) ([]TextBlock, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if l.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(l.TessdataPrefix); err != nil {
			return nil, errors.Wrap(err, "failed to set tessdata prefix")
		}
	}
	lang := l.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return nil, errors.Wrap(err, "failed to set language")
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, errors.Wrap(err, "failed to set image")
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get text regions")
	}

	origin := img.Bounds().Min
	blocks := make([]TextBlock, 0, len(boxes))
	for _, box := range boxes {
		confidence := float64(box.Confidence) / 100.0
		if confidence < l.MinConfidence || box.Box.Empty() {
			continue
		}
		blocks = append(blocks, TextBlock{
			Bounds:     box.Box.Add(origin),
			Confidence: confidence,
		})
	}
	return blocks, nil
}

// LargestTextRegion returns the corners (TL, TR, BR, BL) of the largest
// text block, or nil when Tesseract finds none.
func (l *TesseractLocator) LargestTextRegion(img image.Image) ([]geometry.Point, error) {
	blocks, err := l.Blocks(img)
	if err != nil {
		return nil, err
	}
	best := largestBlock(blocks)
	if best == nil {
		return nil, nil
	}
	c := geometry.RectFromImage(best.Bounds).Corners()
	return c[:], nil
}

func largestBlock(blocks []TextBlock) *TextBlock {
	var best *TextBlock
	bestArea := 0
	for i := range blocks {
		b := blocks[i].Bounds
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = &blocks[i], area
		}
	}
	return best
}
