package main

import (
	"testing"
	"time"
)

func TestClassifyConfirmationReply(t *testing.T) {
	t.Run("accepted replies confirm regardless of case and trailing space", func(t *testing.T) {
		for _, reply := range []string{"yes", "Yes ", "YES", "y", "Y\t"} {
			if outcome := classifyConfirmationReply(reply); outcome != confirmationConfirmed {
				t.Logf("%q should confirm but got %s", reply, outcome)
				t.Fail()
			}
		}
	})

	t.Run("anything else rejects", func(t *testing.T) {
		for _, reply := range []string{"no", "nope", "", "yess", " yes no"} {
			if outcome := classifyConfirmationReply(reply); outcome != confirmationRejected {
				t.Logf("%q should reject but got %s", reply, outcome)
				t.Fail()
			}
		}
	})

	t.Run("leading whitespace is not stripped", func(t *testing.T) {
		// only trailing whitespace is normalized away
		if outcome := classifyConfirmationReply("  yes"); outcome != confirmationRejected {
			t.Logf("leading-whitespace reply should reject but got %s", outcome)
			t.Fail()
		}
	})
}

func TestConfirmationSessions(t *testing.T) {
	t.Run("a reply is routed to the registered wait", func(t *testing.T) {
		replyChannel, err := registerConfirmation("chan1", "user1")
		if err != nil {
			t.Logf("Failed to register: %v", err)
			t.Fail()
			return
		}
		if !deliverConfirmationReply("chan1", "user1", "yes") {
			t.Logf("Reply was not consumed by the pending wait")
			t.Fail()
		}
		select {
		case reply := <-replyChannel:
			if classifyConfirmationReply(reply) != confirmationConfirmed {
				t.Logf("Delivered reply %q did not confirm", reply)
				t.Fail()
			}
		default:
			t.Logf("Reply never arrived on the wait channel")
			t.Fail()
		}
	})

	t.Run("only one session per author and channel", func(t *testing.T) {
		if _, err := registerConfirmation("chan2", "user2"); err != nil {
			t.Logf("First registration failed: %v", err)
			t.Fail()
			return
		}
		defer unregisterConfirmation("chan2", "user2")
		if _, err := registerConfirmation("chan2", "user2"); err == nil {
			t.Logf("Second concurrent registration should have been refused")
			t.Fail()
		}
	})

	t.Run("same author in a different channel is a separate session", func(t *testing.T) {
		if _, err := registerConfirmation("chan3", "user3"); err != nil {
			t.Logf("Registration failed: %v", err)
			t.Fail()
			return
		}
		defer unregisterConfirmation("chan3", "user3")
		if _, err := registerConfirmation("chan4", "user3"); err != nil {
			t.Logf("Different channel should allow a session: %v", err)
			t.Fail()
		}
		unregisterConfirmation("chan4", "user3")
	})

	t.Run("messages from other users are not consumed", func(t *testing.T) {
		if _, err := registerConfirmation("chan5", "user5"); err != nil {
			t.Logf("Registration failed: %v", err)
			t.Fail()
			return
		}
		defer unregisterConfirmation("chan5", "user5")
		if deliverConfirmationReply("chan5", "someoneelse", "yes") {
			t.Logf("A bystander's message was consumed as a confirmation")
			t.Fail()
		}
	})

	t.Run("a reply that lands as the deadline expires still settles the prompt", func(t *testing.T) {
		replyChannel, err := registerConfirmation("chan7", "user7")
		if err != nil {
			t.Logf("Registration failed: %v", err)
			t.Fail()
			return
		}
		if !deliverConfirmationReply("chan7", "user7", "yes") {
			t.Logf("Reply was not consumed by the pending wait")
			t.Fail()
			return
		}
		// both the buffered reply and the timer are ready, so either select
		// branch can win; the reply must count no matter which one does
		if outcome := waitForReply(replyChannel, "chan7", "user7", time.Nanosecond); outcome != confirmationConfirmed {
			t.Logf("Reply delivered at the deadline was swallowed: got %s", outcome)
			t.Fail()
		}
	})

	t.Run("after timeout cleanup, replies flow normally again", func(t *testing.T) {
		if _, err := registerConfirmation("chan6", "user6"); err != nil {
			t.Logf("Registration failed: %v", err)
			t.Fail()
			return
		}
		unregisterConfirmation("chan6", "user6")
		if deliverConfirmationReply("chan6", "user6", "yes") {
			t.Logf("Reply was consumed by a wait that already timed out")
			t.Fail()
		}
	})
}
