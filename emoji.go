package main

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// matches a whole word of the form :name:. The canonical rendered form
// <:name:id> intentionally does not match, so rewriting is a no-op on its
// own output.
var emojiTokenPattern = regexp.MustCompile(`^:([a-zA-Z0-9_-]+):$`)

// matches the canonical rendered form of a custom emoji, e.g. <:pog:1234>
// or <a:party:5678> for animated ones.
var emojiMentionPattern = regexp.MustCompile(`^<(a?):([a-zA-Z0-9_~-]+):([0-9]+)>$`)

// characters that survive name sanitization
var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
var whitespaceRuns = regexp.MustCompile(`\s+`)

/**
Strips the surrounding colons from a :name: token. Returns the bare name and
whether the word was a token at all.
*/
func parseEmojiToken(word string) (string, bool) {
	match := emojiTokenPattern.FindStringSubmatch(word)
	if match == nil {
		return "", false
	}
	return match[1], true
}

/**
Finds an emoji by exact, case-sensitive name in a single guild's emoji list.
Returns nil if there is no match.
*/
func findEmojiByName(emojis []*discordgo.Emoji, name string) *discordgo.Emoji {
	for _, emoji := range emojis {
		if emoji.Name == name {
			return emoji
		}
	}
	return nil
}

/**
Finds an emoji by ID in a single guild's emoji list. Returns nil if there is
no match.
*/
func findEmojiByID(emojis []*discordgo.Emoji, id string) *discordgo.Emoji {
	for _, emoji := range emojis {
		if emoji.ID == id {
			return emoji
		}
	}
	return nil
}

/**
Resolves an emoji name against the origin guild first, then against every
other guild the bot can see. The fallback scans guilds in ascending guild ID
order so resolution is reproducible when two servers share an emoji name.
Returning false is the normal "no such emoji" outcome, not an error.
*/
func resolveEmojiAcross(guilds []*discordgo.Guild, originGuildID string, name string) (*discordgo.Emoji, bool) {
	for _, guild := range guilds {
		if guild.ID == originGuildID {
			if emoji := findEmojiByName(guild.Emojis, name); emoji != nil {
				return emoji, true
			}
		}
	}

	ordered := make([]*discordgo.Guild, len(guilds))
	copy(ordered, guilds)
	sort.Slice(ordered, func(i, j int) bool {
		// snowflakes are numeric, so shorter IDs are always smaller
		if len(ordered[i].ID) != len(ordered[j].ID) {
			return len(ordered[i].ID) < len(ordered[j].ID)
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, guild := range ordered {
		if guild.ID == originGuildID {
			continue
		}
		if emoji := findEmojiByName(guild.Emojis, name); emoji != nil {
			return emoji, true
		}
	}
	return nil, false
}

/**
Session-backed resolver used by the passive rewrite pipeline. Reads the
session state only; never mutates anything.
*/
func resolveEmoji(s *discordgo.Session, originGuildID string, name string) (*discordgo.Emoji, bool) {
	return resolveEmojiAcross(s.State.Guilds, originGuildID, name)
}

/**
Sanitizes a requested emoji name: whitespace runs become single underscores
and every other character outside [a-zA-Z0-9_] is dropped. An empty result
means the name was unusable.
*/
func sanitizeEmojiName(raw string) string {
	name := whitespaceRuns.ReplaceAllString(strings.TrimSpace(raw), "_")
	return invalidNameChars.ReplaceAllString(name, "")
}
