package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// the top-level help embed is built once and cached; ~reload help rebuilds it
var helpEmbed = struct {
	sync.Mutex
	embed *discordgo.MessageEmbed
}{}

/**
Builds the top-level help embed: one field per command group, commands
sorted inside each group. Hidden owner-only commands are left out.
*/
func buildHelpEmbed() *discordgo.MessageEmbed {
	groups := make(map[string][]string)
	for _, cmd := range commandTable {
		if cmd.ownerOnly {
			continue
		}
		groups[cmd.group] = append(groups[cmd.group], defaultPrefix+cmd.name)
	}

	embed := &discordgo.MessageEmbed{
		Color: colourNeutral,
		Title: "Emojis",
		Description: "An emoji management bot. Type `" + defaultPrefix +
			"help [command]` for more info on a command.",
	}

	groupNames := make([]string, 0, len(groups))
	for group := range groups {
		groupNames = append(groupNames, group)
	}
	sort.Strings(groupNames)

	for _, group := range groupNames {
		commands := groups[group]
		sort.Strings(commands)
		embed.Fields = append(embed.Fields, createField(group, "```\n"+strings.Join(commands, "\n")+"\n```", false))
	}
	return embed
}

func cachedHelpEmbed() *discordgo.MessageEmbed {
	helpEmbed.Lock()
	defer helpEmbed.Unlock()
	if helpEmbed.embed == nil {
		helpEmbed.embed = buildHelpEmbed()
	}
	return helpEmbed.embed
}

func rebuildHelpEmbed() {
	helpEmbed.Lock()
	defer helpEmbed.Unlock()
	helpEmbed.embed = buildHelpEmbed()
}

/**
Gets help for the bot: a command list, or specific help on one command when
a name is given.
*/
func handleHelp(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		if _, err := s.ChannelMessageSendEmbed(m.ChannelID, cachedHelpEmbed()); err != nil {
			logError("Failed to send help embed! " + err.Error())
		}
		return nil
	}

	cmd, ok := commandIndex[strings.ToLower(args[0])]
	if !ok {
		return newNotFoundError("That command (`" + args[0] + "`) doesn't exist.")
	}

	aliases := "None"
	if len(cmd.aliases) > 0 {
		aliases = "`" + strings.Join(cmd.aliases, "`, `") + "`"
	}

	embed := &discordgo.MessageEmbed{
		Color: colourNeutral,
		Title: cmd.name,
		Fields: []*discordgo.MessageEmbedField{
			createField("Description", cmd.description, false),
			createField("Usage", "`"+defaultPrefix+cmd.usage+"`", false),
			createField("Aliases", aliases, false),
		},
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		logError("Failed to send command help embed! " + err.Error())
	}
	return nil
}

/**
Gets the bot's heartbeat latency.
*/
func handlePing(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	latency := s.HeartbeatLatency().Milliseconds()
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Color:       colourNeutral,
		Title:       "Pong :ping_pong:",
		Description: fmt.Sprintf("%dms", latency),
	})
	if err != nil {
		logError("Failed to send ping embed! " + err.Error())
	}
	return nil
}

/**
Gets the invite link for the bot.
*/
func handleInvite(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Color:       colourNeutral,
		Description: ":orange_heart: **[Click here to invite the bot.](" + botConfig.InviteURL + ")**",
	})
	if err != nil {
		logError("Failed to send invite embed! " + err.Error())
	}
	return nil
}

/**
Shows the ten most-used commands, counting both what the store has flushed
and what is still pending in memory.
*/
func handleUsage(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	totals, err := dataStore.UsageTotals()
	if err != nil {
		return err
	}

	usageCounts.Lock()
	for command, count := range usageCounts.counts {
		totals[command] += count
	}
	usageCounts.Unlock()

	if len(totals) == 0 {
		return newNotFoundError("No command usage recorded yet.")
	}

	type usageEntry struct {
		command string
		count   int
	}
	entries := make([]usageEntry, 0, len(totals))
	for command, count := range totals {
		entries = append(entries, usageEntry{command, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].command < entries[j].command
	})
	if len(entries) > 10 {
		entries = entries[:10]
	}

	var lines []string
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("`%s%s` - %d uses", guildPrefix(m.GuildID), entry.command, entry.count))
	}

	_, err = s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Color:       colourNeutral,
		Title:       "Top commands",
		Description: strings.Join(lines, "\n"),
	})
	if err != nil {
		logError("Failed to send usage embed! " + err.Error())
	}
	return nil
}

/**
Gets the number of servers the bot is in. Owner-only.
*/
func handleServers(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Color:       colourNeutral,
		Description: fmt.Sprintf("%d servers", len(s.State.Guilds)),
	})
	if err != nil {
		logError("Failed to send servers embed! " + err.Error())
	}
	return nil
}

/**
Reloads bot state without a restart: 'store' re-reads prefixes and the
blacklist from the store, 'help' rebuilds the help embed. Owner-only.
*/
func handleReload(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 {
		return newValidationError("Usage: `" + guildPrefix(m.GuildID) + "reload [store/help]`")
	}

	switch strings.ToLower(args[0]) {
	case "store":
		if err := loadStoredState(); err != nil {
			return err
		}
		sendSuccessEmbed(s, m.ChannelID, "", "Prefixes and blacklist reloaded.", "")
	case "help":
		rebuildHelpEmbed()
		sendSuccessEmbed(s, m.ChannelID, "", "Help embed rebuilt.", "")
	default:
		return newNotFoundError("I can only reload `store` or `help`.")
	}
	logSuccess("Reloaded " + strings.ToLower(args[0]))
	return nil
}

/**
Pulls prefixes and the blacklist out of the store into the in-process maps
every handler reads.
*/
func loadStoredState() error {
	prefixes, err := dataStore.Prefixes()
	if err != nil {
		return err
	}
	ids, err := dataStore.Blacklist()
	if err != nil {
		return err
	}

	guildPrefixes.Lock()
	guildPrefixes.prefixes = prefixes
	guildPrefixes.Unlock()

	blacklisted := make(map[string]bool, len(ids))
	for _, id := range ids {
		blacklisted[id] = true
	}
	userBlacklist.Lock()
	userBlacklist.ids = blacklisted
	userBlacklist.Unlock()

	return nil
}
