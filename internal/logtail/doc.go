// Package logtail reads the tail of keep's log file for `keep logs` and the
// TUI log pane.
//
// Read keeps a ring buffer of maxLines entries while scanning, so memory
// stays bounded by the requested tail rather than the file size. Level and
// Filter understand both logrus formatters:
//
//	time="2026-01-02T15:04:05Z" level=warning msg="snapshot write failed" resource=notes
//	{"level":"error","msg":"remote request failed","op":"refresh","resource":"tasks"}
//
// A missing log file is not an error; it simply has no lines yet.
package logtail
