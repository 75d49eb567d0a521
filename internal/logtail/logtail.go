package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Read returns at most maxLines from the end of the file at path.
// A non-positive maxLines returns every line.
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

// Severity is a glog line severity.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

// ParseSeverity accepts a glog level name or its one-letter prefix.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "I", "INFO":
		return SeverityInfo, nil
	case "W", "WARN", "WARNING":
		return SeverityWarning, nil
	case "E", "ERROR":
		return SeverityError, nil
	case "F", "FATAL":
		return SeverityFatal, nil
	}
	return SeverityUnknown, fmt.Errorf("unknown severity %q", s)
}

// LineSeverity reads the severity from a glog header such as
// "W1019 10:04:05.123456   4242 client.go:88] slow response".
// Continuation lines report SeverityUnknown.
func LineSeverity(line string) Severity {
	if len(line) < 5 {
		return SeverityUnknown
	}
	for _, r := range line[1:5] {
		if r < '0' || r > '9' {
			return SeverityUnknown
		}
	}
	switch line[0] {
	case 'I':
		return SeverityInfo
	case 'W':
		return SeverityWarning
	case 'E':
		return SeverityError
	case 'F':
		return SeverityFatal
	}
	return SeverityUnknown
}

// Filter keeps lines at or above min. Continuation lines follow the
// severity of the header line before them.
func Filter(lines []string, min Severity) []string {
	if min <= SeverityInfo {
		return lines
	}
	out := make([]string, 0, len(lines))
	keep := false
	for _, line := range lines {
		if sev := LineSeverity(line); sev != SeverityUnknown {
			keep = sev >= min
		}
		if keep {
			out = append(out, line)
		}
	}
	return out
}

var (
	headerColor  = color.New(color.FgHiBlack)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// ColorizeLine dims the glog header and highlights warnings and errors.
func ColorizeLine(line string) string {
	sev := LineSeverity(line)
	if sev == SeverityUnknown {
		return line
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return line
	}
	header, msg := line[:end+1], line[end+2:]
	switch sev {
	case SeverityWarning:
		msg = warningColor.Sprint(msg)
	case SeverityError, SeverityFatal:
		msg = errorColor.Sprint(msg)
	}
	return headerColor.Sprint(header) + " " + msg
}

// ColorizeLines applies ColorizeLine to each line.
func ColorizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ColorizeLine(line)
	}
	return out
}
