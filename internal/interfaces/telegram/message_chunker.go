package telegram

import "strings"

// messageLimit is the Telegram message length cap.
const messageLimit = 4096

// ChunkMessage splits text into sendable pieces, preferring paragraph and
// sentence boundaries over hard cuts.
func ChunkMessage(text string) []string {
	if len(text) <= messageLimit {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= messageLimit {
			chunks = append(chunks, remaining)
			break
		}

		at := findSplitPoint(remaining, messageLimit)
		if at <= 0 {
			at = messageLimit
		}

		chunks = append(chunks, remaining[:at])
		remaining = strings.TrimLeft(remaining[at:], " \t\n\r")
	}

	return chunks
}

// findSplitPoint picks a cut position no later than maxLen, in preference
// order: blank line, newline, sentence end, space, hard cut.
func findSplitPoint(text string, maxLen int) int {
	area := text
	if maxLen < len(area) {
		area = area[:maxLen]
	}

	if idx := strings.LastIndex(area, "\n\n"); idx >= maxLen/2 {
		return idx
	}
	if idx := strings.LastIndex(area, "\n"); idx >= maxLen/2 {
		return idx
	}
	if idx := lastIndexAny(area, []string{". ", "。", "！", "？"}); idx >= maxLen/2 {
		return idx + 1 // keep the punctuation
	}
	if idx := strings.LastIndex(area, " "); idx >= maxLen/3 {
		return idx
	}
	return maxLen
}

// lastIndexAny returns the highest index where any of the substrings occurs.
func lastIndexAny(s string, substrs []string) int {
	best := -1
	for _, sub := range substrs {
		if idx := strings.LastIndex(s, sub); idx > best {
			best = idx
		}
	}
	return best
}
