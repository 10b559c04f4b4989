package main

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

// answers every REST call with an empty JSON object so handlers that send
// embeds can run without the network
type stubTransport struct{}

func (stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     make(http.Header),
	}, nil
}

func newDispatchSession(t *testing.T) *discordgo.Session {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("Failed to build session: %v", err)
	}
	s.Client.Transport = stubTransport{}
	state := discordgo.NewState()
	if err := state.GuildAdd(&discordgo.Guild{ID: "200000000000000009"}); err != nil {
		t.Fatalf("Failed to seed state: %v", err)
	}
	s.State = state
	s.StateEnabled = true
	return s
}

func dispatchMessage(authorID string, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID:   "200000000000000009",
		ChannelID: "300000000000000009",
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: "tester"},
	}}
}

func TestCooldowns(t *testing.T) {
	t.Run("second invocation inside the window is refused", func(t *testing.T) {
		if !cooldownAllows("cooldown-user-1", 5*time.Second) {
			t.Logf("First invocation should always pass")
			t.Fail()
		}
		if cooldownAllows("cooldown-user-1", 5*time.Second) {
			t.Logf("Second invocation within the cooldown should be refused")
			t.Fail()
		}
	})

	t.Run("users don't share cooldown buckets", func(t *testing.T) {
		if !cooldownAllows("cooldown-user-2", 5*time.Second) {
			t.Logf("First invocation should always pass")
			t.Fail()
		}
		if !cooldownAllows("cooldown-user-3", 5*time.Second) {
			t.Logf("A different user must not be affected by another's cooldown")
			t.Fail()
		}
	})

	t.Run("a short window refills", func(t *testing.T) {
		if !cooldownAllows("cooldown-user-4", 10*time.Millisecond) {
			t.Logf("First invocation should always pass")
			t.Fail()
		}
		time.Sleep(20 * time.Millisecond)
		if !cooldownAllows("cooldown-user-4", 10*time.Millisecond) {
			t.Logf("Cooldown should have refilled after the interval")
			t.Fail()
		}
	})
}

func TestCommandIndex(t *testing.T) {
	t.Run("aliases resolve to the same command", func(t *testing.T) {
		byName, okName := commandIndex["delete"]
		byAlias, okAlias := commandIndex["del"]
		if !okName || !okAlias || byName != byAlias {
			t.Logf("Alias del should map to the delete command")
			t.Fail()
		}
	})

	t.Run("the excluded eval command is not registered", func(t *testing.T) {
		for _, name := range []string{"evaluate", "eval", "ev"} {
			if _, ok := commandIndex[name]; ok {
				t.Logf("%s must not be a registered command", name)
				t.Fail()
			}
		}
	})
}

func TestDispatchCommand(t *testing.T) {
	s := newDispatchSession(t)

	usagesFor := func(command string) int {
		usageCounts.Lock()
		defer usageCounts.Unlock()
		return usageCounts.counts[command]
	}

	t.Run("a handled invocation is counted once", func(t *testing.T) {
		before := usagesFor("ping")
		if !dispatchCommand(s, dispatchMessage("400000000000000050", "~ping")) {
			t.Logf("A valid command invocation should be handled")
			t.Fail()
		}
		if usagesFor("ping") != before+1 {
			t.Logf("A successful invocation should count exactly once")
			t.Fail()
		}
	})

	t.Run("a cooldown refusal is handled but never counted", func(t *testing.T) {
		before := usagesFor("ping")
		// the same author is still inside the window from the first dispatch
		if !dispatchCommand(s, dispatchMessage("400000000000000050", "~ping")) {
			t.Logf("A refused invocation still counts as handled")
			t.Fail()
		}
		if usagesFor("ping") != before {
			t.Logf("A refused invocation must not be counted as usage")
			t.Fail()
		}
	})

	t.Run("non-command chatter is not handled", func(t *testing.T) {
		if dispatchCommand(s, dispatchMessage("400000000000000051", "hello :partyblob:")) {
			t.Logf("Unprefixed chatter should fall through to the rewriter")
			t.Fail()
		}
	})
}

func TestSimplifyError(t *testing.T) {
	t.Run("REST errors surface the API's own message", func(t *testing.T) {
		restErr := &discordgo.RESTError{
			Message: &discordgo.APIErrorMessage{Code: 30008, Message: "Maximum number of emojis reached"},
		}
		if simplified := simplifyError(restErr); simplified != "Maximum number of emojis reached" {
			t.Logf("Expected the API message, got %q", simplified)
			t.Fail()
		}
	})

	t.Run("plain errors pass through", func(t *testing.T) {
		if simplified := simplifyError(errors.New("something broke")); simplified != "something broke" {
			t.Logf("Expected the error text, got %q", simplified)
			t.Fail()
		}
	})

	t.Run("validation errors read as written", func(t *testing.T) {
		err := newValidationError("Deletion cancelled.")
		if simplified := simplifyError(err); simplified != "Deletion cancelled." {
			t.Logf("Expected the validation message, got %q", simplified)
			t.Fail()
		}
	})
}
