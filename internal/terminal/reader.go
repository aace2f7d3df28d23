package terminal

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// LineReader reads operator input one line at a time.
type LineReader interface {
	// ReadLine returns the next line without its terminator, or io.EOF once input is closed.
	ReadLine() (string, error)
}

type lineReader struct {
	r *bufio.Reader
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) LineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) ReadLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			// final line without terminator; EOF is reported on the next call
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
