// Package report turns search results into something people can read: a text
// rendering of the grid and the solve summary printed by the CLI.
//
// Totals shown in a summary are recomputed by replaying the returned path
// through the model, not copied from the search result.
package report
