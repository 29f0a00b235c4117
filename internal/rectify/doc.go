// Package rectify removes perspective from a plate quadrilateral.
//
// SolveHomography computes the planar transform between two four-point
// sets; Rectifier uses it to resample the quadrilateral into an upright
// rectangle sized by OutputSize.
package rectify
