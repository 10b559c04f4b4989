package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// how long a confirmation prompt waits for a reply
const confirmationTimeout = 30 * time.Second

type confirmationOutcome int

const (
	confirmationConfirmed confirmationOutcome = iota
	confirmationRejected
	confirmationTimedOut
)

func (outcome confirmationOutcome) String() string {
	switch outcome {
	case confirmationConfirmed:
		return "confirmed"
	case confirmationRejected:
		return "rejected"
	case confirmationTimedOut:
		return "timed out"
	}
	return "unknown"
}

// replies that count as a yes, compared after normalization
var acceptedConfirmations = map[string]bool{
	"yes": true,
	"y":   true,
}

var confirmations = struct {
	sync.Mutex
	waiting map[string]chan string
}{waiting: make(map[string]chan string)}

func confirmationKey(channelID string, authorID string) string {
	return channelID + "|" + authorID
}

/**
Hands a message to a pending confirmation wait, if one exists for the
message's channel and author. Returns true when the message was consumed as
a confirmation reply, in which case it must not be treated as a command or
rewritten.
*/
func deliverConfirmationReply(channelID string, authorID string, content string) bool {
	confirmations.Lock()
	defer confirmations.Unlock()

	key := confirmationKey(channelID, authorID)
	replyChannel, ok := confirmations.waiting[key]
	if !ok {
		return false
	}
	delete(confirmations.waiting, key)
	replyChannel <- content
	return true
}

/**
Registers a wait for the given channel/author pair. Only one confirmation
may be pending per pair; a second destructive command has to wait for the
first prompt to settle.
*/
func registerConfirmation(channelID string, authorID string) (chan string, error) {
	confirmations.Lock()
	defer confirmations.Unlock()

	key := confirmationKey(channelID, authorID)
	if _, exists := confirmations.waiting[key]; exists {
		return nil, newValidationError("You already have a pending confirmation here. Answer it first.")
	}
	replyChannel := make(chan string, 1)
	confirmations.waiting[key] = replyChannel
	return replyChannel, nil
}

// drops a wait that expired before any reply arrived.
func unregisterConfirmation(channelID string, authorID string) {
	confirmations.Lock()
	defer confirmations.Unlock()
	delete(confirmations.waiting, confirmationKey(channelID, authorID))
}

/**
Normalizes a reply and maps it onto the confirmation state machine:
an accepted word confirms, anything else rejects.
*/
func classifyConfirmationReply(content string) confirmationOutcome {
	normalized := strings.TrimRight(strings.ToLower(content), " \t\r\n")
	if acceptedConfirmations[normalized] {
		return confirmationConfirmed
	}
	return confirmationRejected
}

/**
Prompts the command's author for a yes/no reply and suspends this handler
until the reply arrives or the timeout passes. Other events keep flowing
while the wait is pending. The returned message is the prompt, so callers
can edit it with the action's result.
*/
func awaitConfirmation(s *discordgo.Session, m *discordgo.MessageCreate, title string, description string) (*discordgo.Message, confirmationOutcome, error) {
	replyChannel, err := registerConfirmation(m.ChannelID, m.Author.ID)
	if err != nil {
		return nil, confirmationRejected, err
	}

	prompt, err := s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colourWarning,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("This will time out after %d seconds.", int(confirmationTimeout.Seconds())),
		},
		Author: &discordgo.MessageEmbedAuthor{
			Name:    m.Author.Username,
			IconURL: m.Author.AvatarURL(""),
		},
	})
	if err != nil {
		unregisterConfirmation(m.ChannelID, m.Author.ID)
		return nil, confirmationRejected, err
	}

	outcome := waitForReply(replyChannel, m.ChannelID, m.Author.ID, confirmationTimeout)
	logInfo("Confirmation for " + m.Author.ID + " in " + m.ChannelID + " " + outcome.String())
	return prompt, outcome, nil
}

/**
Blocks until a reply arrives or the deadline passes. A reply can be consumed
by deliverConfirmationReply in the same instant the timer fires; the timeout
branch drains the buffered channel so that reply still settles the prompt
instead of vanishing.
*/
func waitForReply(replyChannel chan string, channelID string, authorID string, timeout time.Duration) confirmationOutcome {
	select {
	case reply := <-replyChannel:
		return classifyConfirmationReply(reply)
	case <-time.After(timeout):
		unregisterConfirmation(channelID, authorID)
		select {
		case reply := <-replyChannel:
			return classifyConfirmationReply(reply)
		default:
		}
		return confirmationTimedOut
	}
}
