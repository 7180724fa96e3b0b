package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// sourceFile records where one input file starts in the joined source.
type sourceFile struct {
	path  string
	first int // first line, 1-based, in the joined text
	lines int
}

// sourceSet joins several MiniJava files into one compilation unit and
// maps joined line numbers back to the file they came from.
type sourceSet struct {
	files []sourceFile
	text  strings.Builder
	next  int
}

func newSourceSet() *sourceSet {
	return &sourceSet{next: 1}
}

func (s *sourceSet) add(path, src string) {
	if src != "" && !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	n := strings.Count(src, "\n")
	s.files = append(s.files, sourceFile{path: path, first: s.next, lines: n})
	s.text.WriteString(src)
	s.next += n
}

func (s *sourceSet) load(paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		s.add(path, string(data))
	}
	return nil
}

func (s *sourceSet) String() string {
	return s.text.String()
}

// locate maps a joined line to a file and its local line.
func (s *sourceSet) locate(line int) (string, int, bool) {
	for _, f := range s.files {
		if line >= f.first && line < f.first+f.lines {
			return f.path, line - f.first + 1, true
		}
	}
	if len(s.files) > 0 {
		last := s.files[len(s.files)-1]
		return last.path, line - last.first + 1, true
	}
	return "", 0, false
}

var lineRE = regexp.MustCompile(`^line (\d+)`)

// position rewrites a leading "line N" of a diagnostic as "file:N".
func (s *sourceSet) position(msg string) string {
	m := lineRE.FindStringSubmatch(msg)
	if m == nil {
		return msg
	}
	n, _ := strconv.Atoi(m[1])
	path, local, ok := s.locate(n)
	if !ok {
		return msg
	}
	return fmt.Sprintf("%s:%d%s", path, local, msg[len(m[0]):])
}
