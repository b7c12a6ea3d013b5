// Package diffparse parses unified diff output into structured types.
package diffparse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	diffHeaderRe = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// Line is a single diff content line with its absolute line number.
// Added and context lines carry new-file numbers; removed lines carry
// old-file numbers.
type Line struct {
	Number  int
	Content string
}

// Hunk is one @@-delimited block of a file diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Added    []Line
	Removed  []Line
	Context  []Line
}

// FileDiff is the parsed diff for a single file.
type FileDiff struct {
	Path      string
	OldPath   string // Set only for renames
	Hunks     []Hunk
	IsNew     bool
	IsDeleted bool
}

// ModifiedRanges returns the contiguous (start, end) line ranges covered
// by added lines, in new-file coordinates. Removed-only hunks contribute
// nothing: a deletion with no replacement has no line to point at in the
// new file.
func (fd *FileDiff) ModifiedRanges() []Range {
	var ranges []Range
	for _, h := range fd.Hunks {
		if len(h.Added) == 0 {
			continue
		}
		start, end := h.Added[0].Number, h.Added[0].Number
		for _, l := range h.Added[1:] {
			if l.Number < start {
				start = l.Number
			}
			if l.Number > end {
				end = l.Number
			}
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// Range is an inclusive 1-indexed line range.
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether two closed intervals intersect.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Parse parses a full unified diff, possibly spanning multiple files,
// into ordered FileDiffs. Malformed header and hunk lines are skipped;
// parsing never fails. A skipped line cannot desynchronize the line
// counters because counters only advance on recognized content lines.
func Parse(diffText string) []FileDiff {
	var files []FileDiff
	var current *FileDiff
	var hunk *Hunk
	oldLine, newLine := 0, 0

	flushHunk := func() {
		if current != nil && hunk != nil {
			current.Hunks = append(current.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if current != nil {
			files = append(files, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(diffText, "\n") {
		if m := diffHeaderRe.FindStringSubmatch(line); m != nil {
			flushFile()
			fd := FileDiff{Path: m[2]}
			if m[1] != m[2] {
				fd.OldPath = m[1]
			}
			current = &fd
			continue
		}
		if current == nil {
			continue
		}

		if strings.HasPrefix(line, "new file") {
			current.IsNew = true
			continue
		}
		if strings.HasPrefix(line, "deleted file") {
			current.IsDeleted = true
			continue
		}

		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			flushHunk()
			h := Hunk{
				OldStart: atoiDefault(m[1], 1),
				OldCount: atoiDefault(m[2], 1),
				NewStart: atoiDefault(m[3], 1),
				NewCount: atoiDefault(m[4], 1),
			}
			hunk = &h
			oldLine = h.OldStart
			newLine = h.NewStart
			continue
		}
		if hunk == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			hunk.Added = append(hunk.Added, Line{Number: newLine, Content: line[1:]})
			newLine++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			hunk.Removed = append(hunk.Removed, Line{Number: oldLine, Content: line[1:]})
			oldLine++
		case strings.HasPrefix(line, " "):
			hunk.Context = append(hunk.Context, Line{Number: newLine, Content: line[1:]})
			newLine++
			oldLine++
		}
	}

	flushFile()
	return files
}

// WrapPatch prepends the diff header the hosting API strips from per-file
// patches, so they can be fed through Parse.
func WrapPatch(path, patch string) string {
	var sb strings.Builder
	sb.WriteString("diff --git a/" + path + " b/" + path + "\n")
	sb.WriteString("--- a/" + path + "\n")
	sb.WriteString("+++ b/" + path + "\n")
	sb.WriteString(patch)
	return sb.String()
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
