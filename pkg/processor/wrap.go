package processor

import (
	"strings"
)

// Wrap greedily packs text into lines of at most width characters, the same
// way Python's textwrap.wrap does with its default options except hyphen
// splitting. Tabs are expanded, every whitespace character becomes a space,
// words longer than width are broken, and whitespace at line boundaries is
// dropped (leading whitespace of the first line is kept).
func Wrap(text string, width, tabSize int) []string {
	text = mungeWhitespace(expandTabs(text, tabSize))
	return wrapChunks(splitChunks(text), width)
}

func expandTabs(s string, tabSize int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			if tabSize > 0 {
				n := tabSize - col%tabSize
				b.WriteString(strings.Repeat(" ", n))
				col += n
			}
		case '\n', '\r':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

var whitespaceReplacer = strings.NewReplacer(
	"\t", " ",
	"\n", " ",
	"\v", " ",
	"\f", " ",
	"\r", " ",
)

func mungeWhitespace(s string) string {
	return whitespaceReplacer.Replace(s)
}

// splitChunks splits s into alternating runs of spaces and non-spaces.
func splitChunks(s string) [][]rune {
	var chunks [][]rune
	var cur []rune
	inSpace := false

	for _, r := range s {
		isSpace := r == ' '
		if len(cur) > 0 && isSpace != inSpace {
			chunks = append(chunks, cur)
			cur = nil
		}
		inSpace = isSpace
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

func blank(chunk []rune) bool {
	for _, r := range chunk {
		if r != ' ' {
			return false
		}
	}
	return true
}

func wrapChunks(chunks [][]rune, width int) []string {
	// Work from the end of a reversed slice so taking the next chunk is a pop.
	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}

	var lines []string
	for len(chunks) > 0 {
		var cur [][]rune
		curLen := 0

		if len(lines) > 0 && blank(chunks[len(chunks)-1]) {
			chunks = chunks[:len(chunks)-1]
		}

		for len(chunks) > 0 {
			next := chunks[len(chunks)-1]
			if curLen+len(next) > width {
				break
			}
			cur = append(cur, next)
			curLen += len(next)
			chunks = chunks[:len(chunks)-1]
		}

		if len(chunks) > 0 && len(chunks[len(chunks)-1]) > width {
			spaceLeft := width - curLen
			if width < 1 {
				spaceLeft = 1
			}
			long := chunks[len(chunks)-1]
			cur = append(cur, long[:spaceLeft])
			chunks[len(chunks)-1] = long[spaceLeft:]
		}

		if len(cur) > 0 && blank(cur[len(cur)-1]) {
			cur = cur[:len(cur)-1]
		}

		if len(cur) > 0 {
			var b strings.Builder
			for _, c := range cur {
				b.WriteString(string(c))
			}
			lines = append(lines, b.String())
		}
	}
	return lines
}
