// Package proc reads the few facts about a monitoring target that damonctl
// needs from procfs on Linux.
//
//   - Exists: validate a pid before it is written to pid_target.
//   - Comm, Describe: the process name and resident size shown next to
//     vaddr targets in status output.
//   - ReadMaps: the virtual address mappings of a process, used to derive
//     monitoring regions from a mapping name such as [heap] or [stack].
//
// Paths are resolved below Root, which honours the PROC_ROOT env var so the
// readers can be tested against a fake tree. PAGE_SIZE overrides the page
// size used by the statm fallback of Describe.
//
// Errors (errs.go):
//
//	ErrNoComm : comm was empty
//	ErrNoRSS  : neither status nor statm gave a resident size
//	ErrNoMaps : maps held no parsable line
package proc
