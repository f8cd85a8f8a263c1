// Package sandbox runs submitted code in a child process.
//
// Every request gets its own working directory, a hard wall-clock
// timeout that kills the whole process group, and captured stdout and
// stderr. The directory is removed once the result has been handed
// back. Isolation stops at the process boundary.
package sandbox
