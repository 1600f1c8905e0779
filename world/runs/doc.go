// Package runs keeps finished solver runs.
//
// A Store is a registry of RunReports keyed by run ID, guarded by a
// read-write mutex. A report is the finished outcome of a search, never
// resumable search state. Old runs are pruned from memory with
// CleanupExpired.
//
// A Store built with NewStoreWithArchive also writes each run to an Archive.
// FileArchive keeps one JSON file per run so history survives restarts:
//
//	archive, _ := runs.NewFileArchive("runs")
//	store := runs.NewStoreWithArchive(1000, archive)
//	n, _ := store.LoadArchived()
package runs
