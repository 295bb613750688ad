package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

var textLevel = regexp.MustCompile(`(?:^|\s)level=("?)([a-z]+)("?)`)

// Level extracts the logrus level of a text- or JSON-formatted line.
func Level(line string) (logrus.Level, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var entry struct {
			Level string `json:"level"`
		}
		if err := sonic.ConfigStd.UnmarshalFromString(trimmed, &entry); err != nil || entry.Level == "" {
			return 0, false
		}
		lvl, err := logrus.ParseLevel(entry.Level)
		return lvl, err == nil
	}
	m := textLevel.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, false
	}
	lvl, err := logrus.ParseLevel(m[2])
	return lvl, err == nil
}

// Filter keeps lines at min severity or above. Lines without a level, such as
// wrapped continuations, follow the previous entry's verdict.
func Filter(lines []string, min logrus.Level) []string {
	out := make([]string, 0, len(lines))
	keep := true
	for _, line := range lines {
		if lvl, ok := Level(line); ok {
			keep = lvl <= min
		}
		if keep {
			out = append(out, line)
		}
	}
	return out
}
