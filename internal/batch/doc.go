// Package batch runs the plate engine over a manifest of images and their
// detector boxes, writing one plate image per success and a JSON report.
//
// Items are processed concurrently by a bounded worker group. A missed
// plate, an unreadable file or a panicking item is recorded in the report
// and never stops the batch; only context cancellation does.
package batch
