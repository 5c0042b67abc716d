// Package gitutil contains the repository workflows of sds.
//
// SyncUpstream and MergeMain shell out to git through an executil.Runner,
// so the user sees the same progress lines as in a terminal session. Inspect
// only reads the repository and uses go-git instead.
package gitutil
