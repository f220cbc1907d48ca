// Package pipeline runs the release steps of a SCONE CI job.
//
// A pipeline is a fixed sequence of external tools that live in the
// workspace: build, install-tree rearrangement, then packaging. Each step
// is announced on the output writer with a fixed label immediately before
// it starts, runs with the workspace as its working directory and inherits
// the process environment.
//
// The exit status of every step is checked explicitly. The first step that
// exits non-zero, or cannot be started, ends the run with a
// models.StepFailure; the steps after it are marked skipped and never
// invoked. There are no retries and no rollback.
//
//	runner := pipeline.NewRunner(workspace, pipeline.DefaultSteps(),
//	    executor.NewProcessRunner(os.Stdout, os.Stderr))
//	result, err := runner.Run(ctx)
package pipeline
