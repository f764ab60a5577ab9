// Package logs reads the vidsub log file for the logs command: the last N
// matching lines, then optionally new lines as they are appended.
package logs
