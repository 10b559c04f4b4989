package main

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const defaultPrefix = "~"

// one command per five seconds per user unless a command says otherwise
const globalCooldown = 5 * time.Second

// embed colours, shared across every response the bot sends
const (
	colourError   = 15742004
	colourSuccess = 3066993
	colourNeutral = 16562199
	colourWarning = 16707936
)

/**
User-facing error kinds. Handlers return these when the user's input is the
problem; the dispatcher shows the message as-is instead of a generic apology.
*/
type validationError struct{ message string }

func (e *validationError) Error() string { return e.message }

func newValidationError(message string) error { return &validationError{message: message} }

type notFoundError struct{ message string }

func (e *notFoundError) Error() string { return e.message }

func newNotFoundError(message string) error { return &notFoundError{message: message} }

type fetchError struct{ message string }

func (e *fetchError) Error() string { return e.message }

func newFetchError(message string) error { return &fetchError{message: message} }

// botCommand describes one command: the dispatcher matches parsed input
// against this table instead of reflecting over handlers.
type botCommand struct {
	name        string
	aliases     []string
	group       string
	description string
	usage       string
	permission  int64
	ownerOnly   bool
	cooldown    time.Duration
	handler     func(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error
}

// commandTable and its name/alias index are populated in init rather than in
// their declarations: the help handler ranges over the table, so a literal
// initializer would be an initialization cycle.
var commandTable []*botCommand
var commandIndex = make(map[string]*botCommand)

func init() {
	commandTable = []*botCommand{
		{
			name:        "rename",
			group:       "Management",
			description: "Rename an emoji.",
			usage:       "rename [emoji] [new name]",
			permission:  discordgo.PermissionManageEmojis,
			handler:     handleRename,
		},
		{
			name:        "delete",
			aliases:     []string{"remove", "del", "deleteemoji", "delemoji"},
			group:       "Management",
			description: "Delete one or more emojis. Deleting several asks for confirmation.",
			usage:       "delete [emoji] <emoji> <emoji> ...",
			permission:  discordgo.PermissionManageEmojis,
			cooldown:    30 * time.Second,
			handler:     handleDelete,
		},
		{
			name:        "upload",
			aliases:     []string{"add", "create"},
			group:       "Management",
			description: "Upload a new emoji from an image URL.",
			usage:       "upload [name] [image URL]",
			permission:  discordgo.PermissionManageEmojis,
			handler:     handleUpload,
		},
		{
			name:        "prefix",
			group:       "Management",
			description: "Change the bot's prefix for this server.",
			usage:       "prefix [new prefix]",
			permission:  discordgo.PermissionManageServer,
			handler:     handlePrefix,
		},
		{
			name:        "blacklist",
			group:       "Management",
			description: "Blacklist a user from the bot.",
			usage:       "blacklist [@user]",
			ownerOnly:   true,
			handler:     handleBlacklist,
		},
		{
			name:        "help",
			aliases:     []string{"commands"},
			group:       "Misc",
			description: "Get information on the bot.",
			usage:       "help <command>",
			handler:     handleHelp,
		},
		{
			name:        "ping",
			aliases:     []string{"latency", "pong"},
			group:       "Misc",
			description: "Pong!",
			usage:       "ping",
			handler:     handlePing,
		},
		{
			name:        "invite",
			aliases:     []string{"inv"},
			group:       "Misc",
			description: "Invite the bot to your server.",
			usage:       "invite",
			handler:     handleInvite,
		},
		{
			name:        "usage",
			aliases:     []string{"us"},
			group:       "Misc",
			description: "View command usage for the bot.",
			usage:       "usage",
			handler:     handleUsage,
		},
		{
			name:        "servers",
			aliases:     []string{"guilds"},
			group:       "Misc",
			description: "View the number of servers the bot is in.",
			usage:       "servers",
			ownerOnly:   true,
			handler:     handleServers,
		},
		{
			name:        "reload",
			group:       "Misc",
			description: "Reload bot state: 'store' re-reads prefixes and the blacklist, 'help' rebuilds the help embed.",
			usage:       "reload [store/help]",
			ownerOnly:   true,
			handler:     handleReload,
		},
	}

	for _, cmd := range commandTable {
		commandIndex[cmd.name] = cmd
		for _, alias := range cmd.aliases {
			commandIndex[alias] = cmd
		}
	}
}

/****
SHARED MUTABLE STATE
****/

var guildPrefixes = struct {
	sync.RWMutex
	prefixes map[string]string
}{prefixes: make(map[string]string)}

var userBlacklist = struct {
	sync.RWMutex
	ids map[string]bool
}{ids: make(map[string]bool)}

var usageCounts = struct {
	sync.Mutex
	counts map[string]int
}{counts: make(map[string]int)}

var cooldownGate = struct {
	sync.Mutex
	limiters map[string]*rate.Limiter
}{limiters: make(map[string]*rate.Limiter)}

func guildPrefix(guildID string) string {
	guildPrefixes.RLock()
	defer guildPrefixes.RUnlock()
	if prefix, ok := guildPrefixes.prefixes[guildID]; ok {
		return prefix
	}
	return defaultPrefix
}

func isBlacklisted(userID string) bool {
	userBlacklist.RLock()
	defer userBlacklist.RUnlock()
	return userBlacklist.ids[userID]
}

func isOwner(userID string) bool {
	for _, id := range botConfig.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func countUsage(command string) {
	usageCounts.Lock()
	defer usageCounts.Unlock()
	usageCounts.counts[command]++
}

/**
Checks the per-user cooldown for a command invocation. Each key gets a
one-token limiter that refills at the cooldown interval, so the first call
passes and the next within the window is refused.
*/
func cooldownAllows(key string, interval time.Duration) bool {
	cooldownGate.Lock()
	defer cooldownGate.Unlock()
	limiter, ok := cooldownGate.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
		cooldownGate.limiters[key] = limiter
	}
	return limiter.Allow()
}

/****
DISPATCH
****/

/**
Validates a user's permissions before a command runs. Administrators pass
every check automatically.
*/
func userHasValidPermissions(s *discordgo.Session, m *discordgo.MessageCreate, permission int64) bool {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		logError("Unable to validate permissions for " + m.Author.ID + ": " + err.Error())
		return false
	}
	return perms&permission == permission || perms&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator
}

/**
Reduces an error to the short line shown to the user. Platform REST errors
carry the API's own message, which is usually clearer than the wrapped
chain around it.
*/
func simplifyError(err error) string {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Message != "" {
		return restErr.Message.Message
	}
	return err.Error()
}

/**
Matches a message against the command table and runs the matched handler.
Returns true when the message was handled as a command invocation (even a
refused one), so the caller can skip the passive rewrite for it.
*/
func dispatchCommand(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	prefix := guildPrefix(m.GuildID)
	if !strings.HasPrefix(m.Content, prefix) {
		return false
	}

	parsed := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(parsed) == 0 {
		return false
	}

	cmd, ok := commandIndex[strings.ToLower(parsed[0])]
	if !ok {
		// unknown commands are ignored, matching CommandNotFound behavior
		return false
	}

	if isBlacklisted(m.Author.ID) {
		sendErrorEmbed(s, m.ChannelID, "Sorry, buddy. You're blacklisted.")
		return true
	}

	if cmd.ownerOnly && !isOwner(m.Author.ID) {
		sendErrorEmbed(s, m.ChannelID, "Sorry, only the bot's owner can use that.")
		return true
	}

	if cmd.permission != 0 && !userHasValidPermissions(s, m, cmd.permission) {
		sendErrorEmbed(s, m.ChannelID, "Sorry, you aren't allowed to manage emojis here.")
		return true
	}

	// rate-limited invocations are refused out loud and never counted
	interval := globalCooldown
	key := m.Author.ID
	if cmd.cooldown != 0 {
		interval = cmd.cooldown
		key = m.Author.ID + "|" + cmd.name
	}
	if !cooldownAllows(key, interval) {
		sendErrorEmbed(s, m.ChannelID, "Slow down! You're using commands too quickly.")
		return true
	}

	if err := cmd.handler(s, m, parsed[1:]); err != nil {
		logWarning("Command " + cmd.name + " failed: " + err.Error())
		sendErrorEmbed(s, m.ChannelID, simplifyError(err))
		return true
	}

	countUsage(cmd.name)
	return true
}

/****
EMBED HELPERS
****/

func sendErrorEmbed(s *discordgo.Session, channelID string, message string) {
	_, err := s.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Color:       colourError,
		Description: message,
	})
	if err != nil {
		logError("Failed to send error embed! " + err.Error())
	}
}

func sendSuccessEmbed(s *discordgo.Session, channelID string, title string, description string, thumbnailURL string) {
	embed := &discordgo.MessageEmbed{
		Color:       colourSuccess,
		Title:       title,
		Description: description,
	}
	if thumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnailURL}
	}
	_, err := s.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		logError("Failed to send success embed! " + err.Error())
	}
}
