package main

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

/**
Resolves a command argument to an emoji owned by the invoking guild. Accepts
the rendered <:name:id> form, a :name: token, or a bare name. An emoji that
exists but belongs to another server is a validation failure: cross-guild
emoji mutation is always rejected before any API call.
*/
func parseEmojiArg(s *discordgo.Session, guildID string, arg string) (*discordgo.Emoji, error) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return nil, err
	}

	if match := emojiMentionPattern.FindStringSubmatch(arg); match != nil {
		if emoji := findEmojiByID(guild.Emojis, match[3]); emoji != nil {
			return emoji, nil
		}
		for _, other := range s.State.Guilds {
			if findEmojiByID(other.Emojis, match[3]) != nil {
				return nil, newValidationError("The emoji " + arg + " isn't from this server.")
			}
		}
		return nil, newNotFoundError("Couldn't find the emoji " + arg + ".")
	}

	name := arg
	if tokenName, ok := parseEmojiToken(arg); ok {
		name = tokenName
	}

	if emoji := findEmojiByName(guild.Emojis, name); emoji != nil {
		return emoji, nil
	}
	if _, found := resolveEmojiAcross(s.State.Guilds, guildID, name); found {
		return nil, newValidationError("The emoji `:" + name + ":` isn't from this server.")
	}
	return nil, newNotFoundError("Couldn't find the emoji `:" + name + ":` in this server.")
}

/**
Renames an emoji in the invoking guild. The requested name is sanitized down
to [a-zA-Z0-9_]; if nothing survives, the rename is refused before touching
the API.
*/
func handleRename(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 2 {
		return newValidationError("Usage: `" + guildPrefix(m.GuildID) + "rename [emoji] [new name]`")
	}

	emoji, err := parseEmojiArg(s, m.GuildID, args[0])
	if err != nil {
		return err
	}

	newName := sanitizeEmojiName(strings.Join(args[1:], " "))
	if newName == "" {
		return newValidationError("You need to include at least one alphanumeric character in the emoji's name.")
	}

	oldName := emoji.Name
	updated, err := s.GuildEmojiEdit(m.GuildID, emoji.ID, &discordgo.EmojiParams{Name: newName})
	if err != nil {
		return err
	}

	logSuccess("Renamed emoji " + oldName + " to " + updated.Name + " in guild " + m.GuildID)
	sendSuccessEmbed(s, m.ChannelID, "Emoji renamed",
		fmt.Sprintf("`:%s:` -> `:%s:`", oldName, updated.Name),
		emojiImageURL(updated))
	return nil
}

/**
Deletes one or more emojis from the invoking guild. Every target is
validated before anything is deleted, and deleting more than one emoji
requires the author to confirm first.
*/
func handleDelete(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		return newValidationError("You need to add at least one emoji to delete.")
	}

	var targets []*discordgo.Emoji
	for _, arg := range args {
		emoji, err := parseEmojiArg(s, m.GuildID, arg)
		if err != nil {
			return err
		}
		targets = append(targets, emoji)
	}

	var prompt *discordgo.Message
	if len(targets) > 1 {
		var outcome confirmationOutcome
		var err error
		prompt, outcome, err = awaitConfirmation(s, m, "Are you sure?",
			fmt.Sprintf("This will delete %d emojis. Type `yes` to confirm, or anything else to cancel.", len(targets)))
		if err != nil {
			return err
		}
		if outcome != confirmationConfirmed {
			return newValidationError("Deletion cancelled.")
		}
	}

	for _, emoji := range targets {
		if err := s.GuildEmojiDelete(m.GuildID, emoji.ID); err != nil {
			return err
		}
		logSuccess("Deleted emoji " + emoji.Name + " from guild " + m.GuildID)
	}

	// a multi-delete gets a summary embed instead of a per-emoji message
	if len(targets) == 1 {
		sendSuccessEmbed(s, m.ChannelID, "Emoji deleted",
			"`:"+targets[0].Name+":`", emojiImageURL(targets[0]))
		return nil
	}

	names := make([]string, len(targets))
	for i, emoji := range targets {
		names[i] = emoji.Name
	}
	summary := &discordgo.MessageEmbed{
		Color:       colourSuccess,
		Title:       fmt.Sprintf("%d emojis deleted", len(targets)),
		Description: "`:" + strings.Join(names, ":`, `:") + ":`",
	}
	if prompt != nil {
		if _, err := s.ChannelMessageEditEmbed(m.ChannelID, prompt.ID, summary); err == nil {
			return nil
		}
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, summary); err != nil {
		logError("Failed to send delete summary embed! " + err.Error())
	}
	return nil
}

/**
Updates the bot's prefix for the invoking guild, in memory and in the store.
*/
func handlePrefix(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 {
		return newValidationError("Usage: `" + guildPrefix(m.GuildID) + "prefix [new prefix]`")
	}
	prefix := args[0]
	if len(prefix) > 4 {
		return newValidationError("Prefixes can be at most 4 characters.")
	}

	if err := dataStore.SetPrefix(m.GuildID, prefix); err != nil {
		logWarning("Couldn't persist prefix for guild " + m.GuildID + ": " + err.Error())
	}
	guildPrefixes.Lock()
	guildPrefixes.prefixes[m.GuildID] = prefix
	guildPrefixes.Unlock()

	sendSuccessEmbed(s, m.ChannelID, "", "My new prefix is `"+prefix+"`.", "")
	return nil
}

/**
Adds a user to the blacklist, in memory and in the store. Owner-only.
*/
func handleBlacklist(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 {
		return newValidationError("Usage: `" + guildPrefix(m.GuildID) + "blacklist [@user]`")
	}

	userID := stripUserID(args[0])
	if !userIDPattern.MatchString(userID) {
		return newValidationError("That doesn't look like a user mention.")
	}

	if err := dataStore.AddBlacklist(userID); err != nil {
		logWarning("Couldn't persist blacklist entry for " + userID + ": " + err.Error())
	}
	userBlacklist.Lock()
	userBlacklist.ids[userID] = true
	userBlacklist.Unlock()

	sendSuccessEmbed(s, m.ChannelID, "", "<@"+userID+"> blacklisted.", "")
	return nil
}

// emojiImageURL builds the CDN URL for an emoji's image, used for embed
// thumbnails.
func emojiImageURL(emoji *discordgo.Emoji) string {
	extension := ".png"
	if emoji.Animated {
		extension = ".gif"
	}
	return "https://cdn.discordapp.com/emojis/" + emoji.ID + extension
}
