package port

type Sink interface {
	// Live line: overwrite last line (no newline)
	WriteLive(line string) error
	// Plain line: notices, suggestion lists; the live line is redrawn on the next update
	WriteLine(line string) error
	// Normal newline (for logs)
	NewLine() error
}
