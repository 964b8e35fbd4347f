package trace

import (
	"bufio"
	"io"
)

// Reader reads a trace one line at a time and counts the bytes consumed.
type Reader struct {
	r         *bufio.Reader
	bytesRead uint64
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line including its line terminator. A final line
// without a terminator is returned as is. At the end of the input, it returns
// io.EOF.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.r.ReadString('\n')
	r.bytesRead += uint64(len(line))

	if err == io.EOF && len(line) > 0 {
		return line, nil
	}

	return line, err
}

// BytesRead returns the number of bytes consumed so far.
func (r *Reader) BytesRead() uint64 {
	return r.bytesRead
}
