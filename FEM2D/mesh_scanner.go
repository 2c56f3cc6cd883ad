package FEM2D

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// meshScanner reads line oriented mesh files. Malformed input panics with the line number.
type meshScanner struct {
	r      *bufio.Reader
	format string
	lineNo int
}

func openMesh(filename, format string, verbose bool, read func(r io.Reader) *Triangulation) *Triangulation {
	if verbose {
		fmt.Printf("Reading %s file named: %s\n", format, filename)
	}
	file, err := os.Open(filename)
	if err != nil {
		panic(fmt.Errorf("unable to open file %s\n %s", filename, err))
	}
	defer file.Close()
	return read(file)
}

func newMeshScanner(r io.Reader, format string) *meshScanner {
	return &meshScanner{r: bufio.NewReader(r), format: format}
}

func (ms *meshScanner) fail(format string, args ...interface{}) {
	panic(fmt.Errorf("%s line %d: %s", ms.format, ms.lineNo, fmt.Sprintf(format, args...)))
}

func (ms *meshScanner) line() (line string) {
	var err error
	line, err = ms.r.ReadString('\n')
	ms.lineNo++
	if err != nil && (err != io.EOF || len(line) == 0) {
		if err == io.EOF {
			ms.fail("early end of file")
		}
		panic(err)
	}
	return strings.TrimRight(line, "\r\n")
}

func (ms *meshScanner) skip(n int) {
	for i := 0; i < n; i++ {
		ms.line()
	}
}

// scan parses the next line, every argument must be filled
func (ms *meshScanner) scan(format string, args ...interface{}) {
	line := ms.line()
	if n, err := fmt.Sscanf(line, format, args...); n < len(args) {
		ms.fail("%v, have %q", err, line)
	}
}

// keyword returns the value of the next "KEY= value" line, skipping blank and % comment lines
func (ms *meshScanner) keyword(key string) (value string) {
	line := strings.TrimSpace(ms.line())
	for len(line) == 0 || strings.HasPrefix(line, "%") {
		line = strings.TrimSpace(ms.line())
	}
	ind := strings.Index(line, "=")
	if ind < 0 || strings.TrimSpace(line[:ind]) != key {
		ms.fail("expected %s=, have %q", key, line)
	}
	return strings.TrimSpace(line[ind+1:])
}

func (ms *meshScanner) keywordInt(key string) (num int) {
	value := ms.keyword(key)
	if _, err := fmt.Sscanf(value, "%d", &num); err != nil {
		ms.fail("%s= needs an integer, have %q", key, value)
	}
	return
}
