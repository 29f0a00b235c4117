//go:build gocv

package detection

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// BackendOpenCV names the OpenCV extractor, available with -tags gocv.
const BackendOpenCV = "opencv"

func init() {
	RegisterBackend(BackendOpenCV, func(cfg Config) Extractor { return NewOpenCVExtractor(cfg) })
}

// OpenCVExtractor runs the line extraction pipeline on OpenCV.
type OpenCVExtractor struct {
	cfg Config
}

// NewOpenCVExtractor creates an OpenCV-backed extractor.
func NewOpenCVExtractor(cfg Config) *OpenCVExtractor {
	return &OpenCVExtractor{cfg: cfg}
}

// Extract implements Extractor.
//
// The steps mirror LineExtractor: grayscale, median blur, Otsu threshold,
// contour mask, Canny, then the probabilistic Hough transform. Lightness
// quantization is skipped; OpenCV's Otsu works on the full gray range.
func (e *OpenCVExtractor) Extract(img image.Image) ([]geometry.Segment, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.Errorf("empty image bounds %v", bounds)
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert image to mat")
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	if r := int(math.Round(e.cfg.DilateRadius)); r > 0 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2*r+1, 2*r+1))
		gocv.Dilate(gray, &gray, kernel)
		kernel.Close()
	}

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	gocv.MedianBlur(gray, &smoothed, 2*int(math.Round(e.cfg.MedianRadius))+1)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(smoothed, &binary, float32(e.cfg.BaseThreshold), 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	mask := gocv.Zeros(binary.Rows(), binary.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	contours := gocv.FindContours(binary, gocv.RetrievalList, gocv.ChainApproxNone)
	defer contours.Close()
	for i := 0; i < contours.Size(); i++ {
		if gocv.ContourArea(contours.At(i)) < float64(e.cfg.MinContourPixels) {
			continue
		}
		gocv.DrawContours(&mask, contours, i, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(mask, &edges, float32(e.cfg.CannyLow), float32(e.cfg.CannyHigh))

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, float32(math.Pi/180), e.cfg.HoughThreshold,
		float32(e.cfg.MinLineLength), float32(e.cfg.MaxLineGap))

	segments := make([]geometry.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		if e.cfg.MaxSegments > 0 && len(segments) >= e.cfg.MaxSegments {
			break
		}
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, geometry.Seg(
			float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3]),
		).Translate(float64(bounds.Min.X), float64(bounds.Min.Y)))
	}
	return segments, nil
}
