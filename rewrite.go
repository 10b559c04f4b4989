package main

import (
	"strings"
	"unicode"
)

// emojiLookup resolves a bare emoji name to its canonical rendered form.
// The bool reports whether the name matched anything.
type emojiLookup func(name string) (string, bool)

/**
Splits message content into alternating word and whitespace segments so the
original spacing survives a rewrite untouched. Joining the returned slice
yields the input exactly.
*/
func splitPreservingWhitespace(content string) []string {
	var segments []string
	var current strings.Builder
	inSpace := false

	for _, r := range content {
		isSpace := unicode.IsSpace(r)
		if current.Len() > 0 && isSpace != inSpace {
			segments = append(segments, current.String())
			current.Reset()
		}
		inSpace = isSpace
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

/**
Rewrites :emoji: tokens the platform could not render into their canonical
<:name:id> form, NQN-style. Words that aren't tokens, and tokens that don't
resolve to a known emoji, pass through untouched. The second return value is
true iff at least one word was substituted; callers must not repost anything
when it is false.
*/
func rewriteMessage(content string, lookup emojiLookup) (string, bool) {
	// cheap pre-check before splitting the whole message
	if !strings.Contains(content, ":") {
		return content, false
	}

	segments := splitPreservingWhitespace(content)
	changed := false

	for i, segment := range segments {
		name, ok := parseEmojiToken(segment)
		if !ok {
			continue
		}
		rendered, found := lookup(name)
		if !found {
			continue
		}
		segments[i] = rendered
		changed = true
	}

	if !changed {
		return content, false
	}
	return strings.Join(segments, ""), true
}
