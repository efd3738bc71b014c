package chunker

import "unicode"

// Segment is one window of a split text. Start and End are rune offsets
// into the original text.
type Segment struct {
	Index   int
	Start   int
	End     int
	Content string
	Size    int
	Total   int
}

// Split divides text into overlapping segments of at most targetSize runes.
//
// Text that fits in targetSize comes back as a single segment. Otherwise each
// window is cut at the last '.' inside it, or failing that at the last space,
// provided the cut lands past the middle of the window; a hard cut is used
// otherwise. Each window after the first starts overlap runes before the
// previous end, and the start always moves forward.
func Split(text string, targetSize, overlap int) []Segment {
	runes := []rune(text)
	n := len(runes)

	if targetSize <= 0 || n <= targetSize {
		return []Segment{{Index: 0, Start: 0, End: n, Content: text, Size: n, Total: 1}}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= targetSize {
		overlap = targetSize / 4
	}

	segments := make([]Segment, 0, n/(targetSize-overlap)+1)
	start := 0

	for start < n {
		end := start + targetSize
		if end >= n {
			end = n
		} else {
			end = boundary(runes, start, end)
		}

		segments = append(segments, Segment{
			Index:   len(segments),
			Start:   start,
			End:     end,
			Content: string(runes[start:end]),
			Size:    end - start,
		})

		if end == n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	for i := range segments {
		segments[i].Total = len(segments)
	}
	return segments
}

// boundary returns the cut point for the window [start, end). The cut is
// placed just after a sentence or word boundary when one exists beyond the
// window midpoint, otherwise end is returned unchanged.
func boundary(runes []rune, start, end int) int {
	mid := start + (end-start)/2

	for i := end - 1; i > mid; i-- {
		if runes[i] == '.' {
			return i + 1
		}
	}
	for i := end - 1; i > mid; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}
