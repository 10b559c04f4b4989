package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bwmarrin/discordgo"
)

var botConfig *BotConfig

var welcomeMessage = "Thanks for inviting Emojis. My prefix is `" + defaultPrefix + "`.\n\n" +
	"Type `" + defaultPrefix + "help` to see what I can do, or just send a message " +
	"with an emoji I know, like `:partyblob:`, and I'll fill it in for you."

// guilds seen since startup, so a GuildCreate during the session can be told
// apart from the ones replayed on connect
var knownGuilds = struct {
	sync.Mutex
	ids map[string]bool
}{ids: make(map[string]bool)}

/**
Opens the Discord session, wires up the event handlers, and blocks until a
termination signal arrives. Background loops run for the session's lifetime
and are stopped on the way out.
*/
func runBot(config *BotConfig, store Store) error {
	botConfig = config
	dataStore = store

	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return err
	}

	// the bot only needs guilds, their emojis, and their messages
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildEmojis

	dg.AddHandler(ready)
	dg.AddHandler(messageCreate)
	dg.AddHandler(guildCreate)

	if err := dg.Open(); err != nil {
		return err
	}

	if err := loadStoredState(); err != nil {
		logWarning("Couldn't load prefixes/blacklist from the store: " + err.Error())
	}

	done := make(chan struct{})
	go startPresenceLoop(dg, done)
	go startUsageFlushLoop(store, done)

	logInfo("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	close(done)
	return dg.Close()
}

func ready(s *discordgo.Session, r *discordgo.Ready) {
	knownGuilds.Lock()
	for _, guild := range r.Guilds {
		knownGuilds.ids[guild.ID] = true
	}
	knownGuilds.Unlock()

	logSuccess("Logged in as " + r.User.Username + " (" + r.User.ID + ")")
}

/**
Routes every inbound message. Bot authors are dropped first so the webhook
reposts can never feed back into the rewriter. A message is then offered, in
order, to any pending confirmation, the command dispatcher, and finally the
passive emoji rewrite.
*/
func messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID == "" {
		// DMs have no emojis to manage and no webhooks to post through
		return
	}

	if deliverConfirmationReply(m.ChannelID, m.Author.ID, m.Content) {
		return
	}

	if dispatchCommand(s, m) {
		return
	}

	replaceUnparsedEmojis(s, m)
}

/**
Replaces unparsed ':emojis:' in a message, to simulate Discord Nitro. Sends
the modified message on a webhook that looks like the user and removes the
original.
*/
func replaceUnparsedEmojis(s *discordgo.Session, m *discordgo.MessageCreate) {
	lookup := func(name string) (string, bool) {
		emoji, found := resolveEmoji(s, m.GuildID, name)
		if !found {
			return "", false
		}
		return emoji.MessageFormat(), true
	}

	rewritten, changed := rewriteMessage(m.Content, lookup)
	if !changed {
		return
	}

	if err := dispatchRewrite(s, m, rewritten); err != nil {
		logWarning("Couldn't repost rewritten message in " + m.ChannelID + ": " + err.Error())
	}
}

/**
Sends a welcome message to the first channel the bot can speak in when it
joins a new guild. GuildCreate also fires for every guild on connect; those
are skipped via the known-guild set.
*/
func guildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	knownGuilds.Lock()
	seen := knownGuilds.ids[g.ID]
	knownGuilds.ids[g.ID] = true
	knownGuilds.Unlock()
	if seen {
		return
	}

	logInfo("Joined new guild " + g.Name + " (" + g.ID + ")")

	for _, channel := range g.Channels {
		if channel.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		perms, err := s.UserChannelPermissions(s.State.User.ID, channel.ID)
		if err != nil || perms&discordgo.PermissionSendMessages == 0 {
			continue
		}
		_, err = s.ChannelMessageSendEmbed(channel.ID, &discordgo.MessageEmbed{
			Color:       colourNeutral,
			Description: welcomeMessage,
		})
		if err != nil {
			logError("Failed to send welcome message! " + err.Error())
		}
		return
	}
}
