package agent

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadCandidates reads a fixed label candidate file. An empty path yields nil.
//
// Lines are trimmed and literal \n sequences become newlines. When the first
// line starts with "1 " every line carries a numeric id which is dropped. When a
// line contains a tab the file is treated as dialogue data and the candidates are
// the reply column.
func LoadCandidates(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidates file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cands, err := ParseCandidates(f)
	if err != nil {
		return nil, fmt.Errorf("read candidates file %s: %w", path, err)
	}
	return cands, nil
}

// ParseCandidates implements the LoadCandidates format over a reader.
func ParseCandidates(r io.Reader) ([]string, error) {
	var (
		cands           []string
		count           int
		linesHaveIDs    bool
		candsAreReplies bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.ReplaceAll(strings.TrimSpace(scanner.Text()), `\n`, "\n")
		if line == "" {
			continue
		}
		count++
		if count == 1 && strings.HasPrefix(line, "1 ") {
			linesHaveIDs = true
		}
		if strings.Contains(line, "\t") && !candsAreReplies {
			candsAreReplies = true
			cands = nil
		}

		if !linesHaveIDs {
			cands = append(cands, line)
			continue
		}

		if idx := strings.Index(line, " "); idx >= 0 {
			line = line[idx+1:]
		}
		if !candsAreReplies {
			cands = append(cands, line)
			continue
		}
		if parts := strings.Split(line, "\t"); len(parts) > 1 && parts[1] != "" {
			cands = append(cands, parts[1])
		}
	}
	return cands, scanner.Err()
}
