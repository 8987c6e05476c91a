package service

import (
	"strings"
)

// The labelled-field protocol spoken with the model. Serialization follows
// marker order; parsing walks it backwards, anchored on the final TOPIC.
var markers = []string{
	"INQUIRY",
	"TOOL",
	"LANGUAGE",
	"THOUGHT",
	"KEYPHRASES",
	"OBSERVATION",
	"TOPIC",
}

const topicFallback = "TOPIC: general knowledge."

// Construct serializes kv into the labelled-field record: one "MARKER:
// value" line per recognized marker with a non-empty value, in marker order.
// Keys are matched case-insensitively; absent markers are omitted entirely.
func Construct(kv map[string]string) string {
	lines := make([]string, 0, len(markers))
	for _, marker := range markers {
		if value := lookupField(kv, marker); value != "" {
			lines = append(lines, marker+": "+value)
		}
	}
	return strings.Join(lines, "\n")
}

// Deconstruct parses free text that should contain a labelled-field record,
// possibly surrounded by chatter. The final "TOPIC:" anchors the scan: its
// value runs to the end of the text. Every other marker is then resolved to
// its last occurrence in the prefix left before the previously found marker,
// taking the first line after the colon. Completions echo the few-shot
// examples they were primed with, so the last occurrence is the real one.
//
// Without the anchor the result is empty; callers re-append the topic
// fallback line and parse again.
func Deconstruct(text string) map[string]string {
	anchor := "TOPIC:"
	idx := strings.LastIndex(text, anchor)
	if idx < 0 {
		return map[string]string{}
	}

	kv := map[string]string{
		"topic": strings.TrimSpace(text[idx+len(anchor):]),
	}

	prefix := text[:idx]
	for i := len(markers) - 2; i >= 0; i-- {
		token := markers[i] + ":"
		at := strings.LastIndex(prefix, token)
		if at < 0 {
			continue
		}
		kv[strings.ToLower(markers[i])] = firstLine(prefix[at+len(token):])
		prefix = prefix[:at]
	}

	return kv
}

// WithTopicFallback re-parses text with the synthetic topic line appended.
// Used when the model wandered off and never produced the anchor.
func WithTopicFallback(text string) map[string]string {
	return Deconstruct(text + "\n" + topicFallback)
}

func lookupField(kv map[string]string, marker string) string {
	for k, v := range kv {
		if strings.EqualFold(k, marker) {
			return v
		}
	}
	return ""
}

func firstLine(s string) string {
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[:nl]
	}
	return strings.TrimSpace(s)
}
