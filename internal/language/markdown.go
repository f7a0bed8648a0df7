package language

import (
	"strings"
)

// MarkdownRegion is a heading-delimited section or a fenced code block.
// Lines are 1-based inclusive.
type MarkdownRegion struct {
	StartLine int
	EndLine   int
	Kind      string // "section" or "fenced_code_block"
}

// MarkdownRegionForLine returns the smallest region enclosing the given
// 1-based line: the fenced code block when the line sits inside one,
// otherwise the section from the nearest heading above through the line
// before the next heading of same-or-higher level.
func MarkdownRegionForLine(lines []string, line int) MarkdownRegion {
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}

	fenced := markFences(lines)

	// Fenced code block wins as the smallest enclosing unit.
	if line-1 < len(fenced) && fenced[line-1] {
		start, end := line, line
		for start > 1 && fenced[start-2] {
			start--
		}
		for end < len(lines) && fenced[end] {
			end++
		}
		return MarkdownRegion{StartLine: start, EndLine: end, Kind: "fenced_code_block"}
	}

	headingLevel := func(i int) int {
		if i < 0 || i >= len(lines) || fenced[i] {
			return 0
		}
		return atxLevel(lines[i])
	}

	start, level := 1, 0
	for i := line - 1; i >= 0; i-- {
		if lvl := headingLevel(i); lvl > 0 {
			start, level = i+1, lvl
			break
		}
	}

	end := len(lines)
	for i := line; i < len(lines); i++ {
		lvl := headingLevel(i)
		if lvl > 0 && (level == 0 || lvl <= level) {
			end = i
			break
		}
	}

	return MarkdownRegion{StartLine: start, EndLine: end, Kind: "section"}
}

// markFences returns a per-line flag set for lines belonging to fenced
// code blocks, fence delimiters included.
func markFences(lines []string) []bool {
	fenced := make([]bool, len(lines))
	inFence := false
	var fenceMarker string
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if !inFence {
			if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
				inFence = true
				fenceMarker = trimmed[:3]
				fenced[i] = true
			}
			continue
		}
		fenced[i] = true
		if strings.HasPrefix(trimmed, fenceMarker) {
			inFence = false
		}
	}
	return fenced
}

// atxLevel returns the ATX heading level (1-6) of a line, or 0.
func atxLevel(line string) int {
	trimmed := strings.TrimLeft(line, " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n == len(trimmed) || trimmed[n] == ' ' || trimmed[n] == '\t' {
		return n
	}
	return 0
}
