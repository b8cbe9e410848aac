/*
Package scan wires the stages of an orphaned package scan into a pipeline:

	registry listing → source → classifier → verifier → report

Each stage runs concurrently and closes its output channel when done, so the
end of the registry listing ripples through the pipeline until the reporter
has written the last orphan report. A failing listing cancels all stages.
*/
package scan
