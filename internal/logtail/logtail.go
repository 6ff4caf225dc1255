package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file reads as no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
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

// Entry is one parsed log line.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Error     string
	// Fields holds the remaining attributes rendered as key=value, sorted.
	Fields []string
	// Structured is false when the line was not a JSON object; Raw then
	// holds the line verbatim.
	Structured bool
	Raw        string
}

// reserved keys are rendered in dedicated columns.
var reserved = map[string]bool{
	"time": true, "level": true, "component": true, "message": true,
	"error": true, "service": true,
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects are
// returned with only Raw set.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{Raw: line}
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{Raw: line}
	}

	e := Entry{
		Structured: true,
		Level:      stringField(raw, "level"),
		Component:  stringField(raw, "component"),
		Message:    stringField(raw, "message"),
		Error:      stringField(raw, "error"),
	}
	if ts := stringField(raw, "time"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			e.Time = t
		}
	}
	for k, v := range raw {
		if reserved[k] {
			continue
		}
		e.Fields = append(e.Fields, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(e.Fields)
	return e
}

// ParseLines parses every line.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		out = append(out, Parse(line))
	}
	return out
}

// Format renders e as a single human-readable line:
//
//	15:04:05 WARN  [catalog] proxy unusable error=... path=/movie/popular
func Format(e Entry) string {
	if !e.Structured {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(levelOrDefault(e.Level))))
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteByte(']')
	}
	if e.Message != "" {
		b.WriteByte(' ')
		b.WriteString(e.Message)
	}
	if e.Error != "" {
		b.WriteString(" error=")
		b.WriteString(e.Error)
	}
	for _, f := range e.Fields {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return b.String()
}

// Filter keeps entries at or above minLevel whose text contains query
// (case-insensitive). Empty arguments match everything.
func Filter(entries []Entry, minLevel, query string) []Entry {
	minRank := levelRank(minLevel)
	query = strings.ToLower(strings.TrimSpace(query))
	var out []Entry
	for _, e := range entries {
		if e.Structured && levelRank(e.Level) < minRank {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(Format(e)), query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return 0
	case "", "debug":
		return 1
	case "info":
		return 2
	case "warn", "warning":
		return 3
	case "error":
		return 4
	case "fatal", "panic":
		return 5
	default:
		return 2
	}
}
