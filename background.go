package main

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	presenceInterval   = 5 * time.Minute
	usageFlushInterval = 15 * time.Minute
)

/**
Keeps the bot's status current. A failed update (closed connection,
transient API error) is logged and retried on the next tick; the loop only
stops when the bot shuts down.
*/
func startPresenceLoop(s *discordgo.Session, done <-chan struct{}) {
	ticker := time.NewTicker(presenceInterval)
	defer ticker.Stop()

	for {
		status := discordgo.UpdateStatusData{
			Status: "online",
			Activities: []*discordgo.Activity{{
				Name: defaultPrefix + "help",
				Type: discordgo.ActivityTypeWatching,
			}},
		}
		if err := s.UpdateStatusComplex(status); err != nil {
			logWarning("Couldn't update presence, will retry next tick: " + err.Error())
		}
		select {
		case <-ticker.C:
		case <-done:
			return
		}
	}
}

/**
Periodically drains the in-process usage counters into the store, including
the daily history bucket. On a store failure the drained counts are added
back so nothing is lost; the loop never exits on error.
*/
func startUsageFlushLoop(store Store, done <-chan struct{}) {
	ticker := time.NewTicker(usageFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			flushUsage(store)
		case <-done:
			// one last flush so a clean shutdown doesn't drop counts
			flushUsage(store)
			return
		}
	}
}

func flushUsage(store Store) {
	usageCounts.Lock()
	pending := usageCounts.counts
	usageCounts.counts = make(map[string]int)
	usageCounts.Unlock()

	if len(pending) == 0 {
		return
	}

	total := 0
	failed := make(map[string]int)
	for command, count := range pending {
		if err := store.IncrementUsage(command, count); err != nil {
			logWarning("Couldn't flush usage for " + command + ": " + err.Error())
			failed[command] = count
			continue
		}
		total += count
	}

	if total > 0 {
		today := time.Now().UTC().Format("2006-01-02")
		if err := store.AddHistory(today, total); err != nil {
			logWarning("Couldn't update usage history: " + err.Error())
		}
	}

	// put anything that didn't make it back into the live map
	if len(failed) > 0 {
		usageCounts.Lock()
		for command, count := range failed {
			usageCounts.counts[command] += count
		}
		usageCounts.Unlock()
	}
}
