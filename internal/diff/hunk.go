// internal/diff/hunk.go
package diff

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"patchwork/internal/errors"
)

// SegmentType indicates whether a segment was added, removed, or is context
type SegmentType int

const (
	Context SegmentType = iota
	Addition
	Deletion
)

// Segment is a run of characters inside a hunk
type Segment struct {
	Type SegmentType
	Text string
}

// Hunk represents a continuous section of changes. Coordinates are the
// ones printed in the patch header.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Segments []Segment
}

// DiffResult contains the parsed form of a patch
type DiffResult struct {
	Hunks []Hunk
	Stats struct {
		Additions int
		Deletions int
		Changes   int
	}
}

var hunkHeader = regexp.MustCompile(`^@@ -(\d+),?(\d*) \+(\d+),?(\d*) @@$`)

// Parse splits patch text into hunks with decoded segment text. Stats count
// inserted and deleted characters.
func Parse(patch string) (*DiffResult, error) {
	result := &DiffResult{}
	if patch == "" {
		return result, nil
	}

	var current *Hunk
	for i, line := range strings.Split(patch, "\n") {
		if line == "" {
			continue
		}
		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			if current != nil {
				result.Hunks = append(result.Hunks, *current)
			}
			current = &Hunk{
				OldStart: atoi(m[1]),
				OldLines: span(m[2]),
				NewStart: atoi(m[3]),
				NewLines: span(m[4]),
			}
			continue
		}
		if current == nil {
			return nil, errors.Internal(fmt.Sprintf("patch line %d precedes any hunk header", i+1), line)
		}

		text := DecodeEscapes(line[1:])
		switch line[0] {
		case ' ':
			current.Segments = append(current.Segments, Segment{Type: Context, Text: text})
		case '+':
			current.Segments = append(current.Segments, Segment{Type: Addition, Text: text})
			result.Stats.Additions += utf8.RuneCountInString(text)
		case '-':
			current.Segments = append(current.Segments, Segment{Type: Deletion, Text: text})
			result.Stats.Deletions += utf8.RuneCountInString(text)
		default:
			return nil, errors.Internal(fmt.Sprintf("invalid patch mode %q on line %d", line[0], i+1), line)
		}
	}
	if current != nil {
		result.Hunks = append(result.Hunks, *current)
	}
	result.Stats.Changes = result.Stats.Additions + result.Stats.Deletions

	return result, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// span reads the optional length part of a header coordinate; an omitted
// length means one character.
func span(s string) int {
	if s == "" {
		return 1
	}
	return atoi(s)
}

// Format returns a string representation of the diff, one segment per line
func (r *DiffResult) Format() string {
	var buf bytes.Buffer

	for _, hunk := range r.Hunks {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldLines,
			hunk.NewStart, hunk.NewLines)

		for _, seg := range hunk.Segments {
			switch seg.Type {
			case Addition:
				buf.WriteString("+ ")
			case Deletion:
				buf.WriteString("- ")
			case Context:
				buf.WriteString("  ")
			}
			buf.WriteString(strings.ReplaceAll(seg.Text, "\n", `\n`))
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
