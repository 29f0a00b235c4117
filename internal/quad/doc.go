// Package quad reconstructs plate quadrilaterals from classified lines.
//
// A Strategy proposes hypotheses (groups of three or four lines that may
// bound a plate) and a Selector scores them and turns the winner into a
// canonical corner set. Three-line hypotheses let a plate with one occluded
// or undetected side still be recovered.
package quad
