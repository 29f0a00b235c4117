// Package trace provides pipeline.Tracer implementations for inspecting how
// an engine reached its result: LogTracer logs a one-line summary of each
// transition and DumpTracer writes an annotated PNG of the evidence.
package trace
