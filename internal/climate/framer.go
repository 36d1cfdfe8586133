package climate

import "strings"

// LineFramer reassembles newline-terminated lines from arbitrarily chunked
// text. The trailing fragment after the last line feed is carried over to
// the next call. There is no line length limit.
type LineFramer struct {
	carry strings.Builder
}

// Push appends chunk to the carry-over and returns every complete line, in
// arrival order, without its terminator.
func (f *LineFramer) Push(chunk string) []string {
	f.carry.WriteString(chunk)

	buf := f.carry.String()
	idx := strings.LastIndexByte(buf, '\n')
	if idx < 0 {
		return nil
	}

	lines := strings.Split(buf[:idx], "\n")
	rest := buf[idx+1:]

	f.carry.Reset()
	f.carry.WriteString(rest)
	return lines
}

// Pending returns the incomplete fragment held for the next Push.
func (f *LineFramer) Pending() string {
	return f.carry.String()
}
