// Package ocr locates text on plate crops using the Tesseract OCR engine
// (via gosseract/v2).
//
// TesseractLocator only runs Tesseract's layout analysis: it reports where
// text blocks are, not what they say. The pipeline uses the largest block to
// re-center low-confidence detections.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Language data is looked up in Tesseract's default tessdata directory
// unless TesseractLocator.TessdataPrefix points elsewhere.
package ocr
