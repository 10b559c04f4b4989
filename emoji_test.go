package main

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

/**
Test the resolver and name handling. Everything here is pure lookup logic;
the discordgo REST calls themselves are verified at
github.com/bwmarrin/discordgo.
**/
func TestEmojiResolution(t *testing.T) {
	homeGuild := &discordgo.Guild{
		ID: "200000000000000001",
		Emojis: []*discordgo.Emoji{
			{ID: "900000000000000001", Name: "partyblob"},
			{ID: "900000000000000002", Name: "greenTick"},
		},
	}
	otherGuild := &discordgo.Guild{
		ID: "100000000000000002",
		Emojis: []*discordgo.Emoji{
			{ID: "900000000000000003", Name: "partyblob"},
			{ID: "900000000000000004", Name: "redTick"},
		},
	}
	thirdGuild := &discordgo.Guild{
		ID: "100000000000000009",
		Emojis: []*discordgo.Emoji{
			{ID: "900000000000000005", Name: "redTick"},
		},
	}
	guilds := []*discordgo.Guild{homeGuild, otherGuild, thirdGuild}

	t.Run("prefers the origin guild's emoji over a same-named one elsewhere", func(t *testing.T) {
		emoji, found := resolveEmojiAcross(guilds, homeGuild.ID, "partyblob")
		if !found {
			t.Logf("Failed to resolve partyblob at all")
			t.Fail()
		} else if emoji.ID != "900000000000000001" {
			t.Logf("Resolved the wrong guild's partyblob: got ID %s", emoji.ID)
			t.Fail()
		}
	})

	t.Run("falls back to other guilds in ascending guild ID order", func(t *testing.T) {
		// redTick exists in two foreign guilds; the lower guild ID must win
		emoji, found := resolveEmojiAcross(guilds, homeGuild.ID, "redTick")
		if !found {
			t.Logf("Failed to resolve redTick from a foreign guild")
			t.Fail()
		} else if emoji.ID != "900000000000000004" {
			t.Logf("Fallback order is not deterministic: got ID %s", emoji.ID)
			t.Fail()
		}
	})

	t.Run("unknown names resolve to nothing, not an error", func(t *testing.T) {
		if _, found := resolveEmojiAcross(guilds, homeGuild.ID, "doesnotexist"); found {
			t.Logf("Resolved an emoji that doesn't exist anywhere")
			t.Fail()
		}
	})

	t.Run("name matching is case-sensitive", func(t *testing.T) {
		if _, found := resolveEmojiAcross(guilds, homeGuild.ID, "Partyblob"); found {
			t.Logf("Matched partyblob with the wrong case")
			t.Fail()
		}
	})
}

func TestParseEmojiToken(t *testing.T) {
	t.Run("matches :name: words", func(t *testing.T) {
		name, ok := parseEmojiToken(":party-blob_2:")
		if !ok || name != "party-blob_2" {
			t.Logf("Failed to parse valid token: got %q, %v", name, ok)
			t.Fail()
		}
	})

	t.Run("does not match the canonical rendered form", func(t *testing.T) {
		if _, ok := parseEmojiToken("<:partyblob:900000000000000001>"); ok {
			t.Logf("Canonical form should not parse as a token")
			t.Fail()
		}
	})

	t.Run("does not match plain words or empty colons", func(t *testing.T) {
		for _, word := range []string{"partyblob", "::", ":a b:", ":", "a:b:c"} {
			if _, ok := parseEmojiToken(word); ok {
				t.Logf("%q should not parse as a token", word)
				t.Fail()
			}
		}
	})
}

func TestSanitizeEmojiName(t *testing.T) {
	t.Run("strips symbols and turns spaces into underscores", func(t *testing.T) {
		sanitized := sanitizeEmojiName("Cool Emoji!! #1")
		if sanitized != "Cool_Emoji_1" {
			t.Logf("Expected Cool_Emoji_1, got %q", sanitized)
			t.Fail()
		}
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		sanitized := sanitizeEmojiName("a   b\tc")
		if sanitized != "a_b_c" {
			t.Logf("Expected a_b_c, got %q", sanitized)
			t.Fail()
		}
	})

	t.Run("all-symbol names sanitize to nothing", func(t *testing.T) {
		if sanitized := sanitizeEmojiName("!!!"); sanitized != "" {
			t.Logf("Expected empty string, got %q", sanitized)
			t.Fail()
		}
	})
}
