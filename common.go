package main

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bwmarrin/discordgo"
)

// a raw Discord snowflake
var userIDPattern = regexp.MustCompile(`^[0-9]{17,20}$`)

/**
Fetches a response from the requested URL and returns it in the form of a
goquery Document, which can be searched more easily.
*/
func loadPage(url string) *goquery.Document {
	res, err := http.Get(url)
	if err != nil {
		logError("Error getting the page: " + err.Error())
		return nil
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		logWarning("Page did not return 200 status OK")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		logError("Error converting response into goquery Document: " + err.Error())
		return nil
	}

	return doc
}

/**
Returns a field to be added to a Discord embed message. Used to prevent
bloating in the methods where it is used.
*/
func createField(title string, description string, inline bool) *discordgo.MessageEmbedField {
	var field discordgo.MessageEmbedField
	field.Name = title
	field.Value = description
	field.Inline = inline
	return &field
}

/**
Strips the characters surrounding a user ID. Heavily used, so it warrants a
method.
*/
func stripUserID(raw string) string {
	// strip <@ and > surrounding the user ID
	raw = strings.TrimSuffix(raw, ">")
	raw = strings.TrimPrefix(raw, "<@")

	// remove the ! if the user has a nickname
	raw = strings.TrimPrefix(raw, "!")
	return raw
}
