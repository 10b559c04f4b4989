package main

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// every impersonation webhook the bot owns uses this name, so restarts can
// adopt endpoints created by a previous run instead of piling up duplicates.
const impersonationWebhookName = "Emojis"

var webhookCache = struct {
	sync.Mutex
	hooks map[string]*discordgo.Webhook
}{hooks: make(map[string]*discordgo.Webhook)}

/**
Returns the channel's impersonation webhook, creating it if the channel
doesn't have one yet. The lookup-then-create runs under the cache mutex, so
two messages racing on first use of a channel can't create two endpoints.
*/
func getChannelWebhook(s *discordgo.Session, channelID string) (*discordgo.Webhook, error) {
	webhookCache.Lock()
	defer webhookCache.Unlock()

	if hook, ok := webhookCache.hooks[channelID]; ok {
		return hook, nil
	}

	// adopt an existing webhook from a previous session before creating one
	existing, err := s.ChannelWebhooks(channelID)
	if err != nil {
		return nil, err
	}
	for _, hook := range existing {
		if hook.Name == impersonationWebhookName {
			webhookCache.hooks[channelID] = hook
			return hook, nil
		}
	}

	created, err := s.WebhookCreate(channelID, impersonationWebhookName, "")
	if err != nil {
		return nil, err
	}
	webhookCache.hooks[channelID] = created
	return created, nil
}

/**
Reposts rewritten content through the channel's webhook under the original
author's display name and avatar, then deletes the original message. The
post happens first: if it fails the original stays put, and if only the
delete fails the worst case is a visible duplicate rather than a lost
message.
*/
func dispatchRewrite(s *discordgo.Session, m *discordgo.MessageCreate, content string) error {
	hook, err := getChannelWebhook(s, m.ChannelID)
	if err != nil {
		return err
	}

	displayName := m.Author.Username
	if m.Member != nil && m.Member.Nick != "" {
		displayName = m.Member.Nick
	}

	_, err = s.WebhookExecute(hook.ID, hook.Token, true, &discordgo.WebhookParams{
		Content:   content,
		Username:  displayName,
		AvatarURL: m.Author.AvatarURL(""),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	})
	if err != nil {
		return err
	}

	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		logWarning("Posted rewritten message but couldn't delete the original: " + err.Error())
	}
	return nil
}
