// Package imaging provides the pixel-level primitives used by plate
// rectification: grayscale conversion, lightness quantization, median
// smoothing, Otsu binarization, connected components, Canny edges, cropping,
// resizing, overlay drawing, and image file I/O.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left) and Max is exclusive (bottom-right)
//
// Functions that build new rasters from arbitrary input (ToGray,
// QuantizeLightness, MedianBlur, Binarize, Crop) return images anchored at
// (0, 0). Callers that work on a sub-image must add the source bounds offset
// back when mapping results to the original image.
//
// # Libraries
//
// Median filtering, grayscale conversion and thresholding are delegated to
// bild; lightness uses go-colorful's CIE L*; cropping, resizing and file
// encoding use disintegration/imaging.
//
// # Thread Safety
//
// Every function is stateless and may be called concurrently on different
// images. Nothing is cached between calls.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside image bounds
//   - Empty regions
//   - File I/O errors during image loading or saving
//   - Unsupported output formats
package imaging
