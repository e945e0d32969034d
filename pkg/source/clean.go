package source

import (
	"bytes"
	"fmt"
	"os"
)

// Cleaner strips instructor-provided boilerplate from submissions before
// parsing: any line that appears verbatim in the template file is removed,
// so shared skeleton code does not inflate pairwise similarity.
type Cleaner struct {
	templateLines map[string]struct{}
}

// NewCleaner builds a cleaner from raw template content.
func NewCleaner(template []byte) *Cleaner {
	lines := make(map[string]struct{})
	for _, line := range bytes.Split(template, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines[string(line)] = struct{}{}
	}
	return &Cleaner{templateLines: lines}
}

// LoadCleaner reads a template file and builds a cleaner from it.
func LoadCleaner(path string) (*Cleaner, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return NewCleaner(content), nil
}

// Clean removes template lines from content. A nil cleaner passes content
// through unchanged.
func (c *Cleaner) Clean(content []byte) []byte {
	if c == nil || len(c.templateLines) == 0 {
		return content
	}

	var out bytes.Buffer
	out.Grow(len(content))
	for _, line := range bytes.Split(content, []byte("\n")) {
		if _, ok := c.templateLines[string(line)]; ok {
			continue
		}
		out.Write(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
