// Package display renders user-facing warnings for scone-ci.
//
// Warnings report problems that do not change the outcome of a run, such as a
// history database that cannot be opened or a job summary that cannot be
// written. They go to stderr so the step labels on stdout stay clean:
//
//	display.Warn(os.Stderr, "Run history not recorded", err, dbPath)
//
// Warn fills Title, Message and Files; build a Warning directly when a
// Suggestion is needed.
//
// Color follows fatih/color's detection: it is disabled when NO_COLOR is set
// or the output is not a terminal.
package display
