package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects emoji images over 256 KiB
const maxEmojiImageBytes = 256 * 1024

/**
Uploads a new custom emoji to the invoking guild from an image URL. If the
URL points at a web page instead of an image, the first <img> on the page is
used. The image has to fit Discord's emoji size ceiling.
*/
func handleUpload(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if len(args) != 2 {
		return newValidationError("Usage: `" + guildPrefix(m.GuildID) + "upload [name] [image URL]`")
	}

	name := sanitizeEmojiName(args[0])
	if name == "" {
		return newValidationError("You need to include at least one alphanumeric character in the emoji's name.")
	}

	dataURI, err := fetchEmojiImage(args[1])
	if err != nil {
		return err
	}

	emoji, err := s.GuildEmojiCreate(m.GuildID, &discordgo.EmojiParams{Name: name, Image: dataURI})
	if err != nil {
		return err
	}

	logSuccess("Uploaded emoji " + emoji.Name + " to guild " + m.GuildID)
	sendSuccessEmbed(s, m.ChannelID, "", "`:"+emoji.Name+":`", emojiImageURL(emoji))
	return nil
}

/**
Fetches an image and encodes it as the base64 data URI the emoji endpoint
expects. HTML responses get one level of indirection: the page is scraped
for its first image and that image is fetched instead.
*/
func fetchEmojiImage(url string) (string, error) {
	body, contentType, err := fetchURL(url)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(contentType, "text/html") {
		imageURL, ok := scrapeImageFromPage(url)
		if !ok {
			return "", newFetchError("That page doesn't have an image I can use.")
		}
		body, contentType, err = fetchURL(imageURL)
		if err != nil {
			return "", err
		}
	}

	if !strings.HasPrefix(contentType, "image/") {
		return "", newFetchError("That URL isn't an image.")
	}
	if len(body) > maxEmojiImageBytes {
		return "", newFetchError(fmt.Sprintf("That image is too big (%d KB). Emojis must be under 256 KB.", len(body)/1024))
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

/**
Fetches a URL and returns the body along with the detected content type.
Reads one byte past the size ceiling so oversized images fail cleanly
instead of being truncated.
*/
func fetchURL(url string) ([]byte, string, error) {
	res, err := http.Get(url)
	if err != nil {
		return nil, "", newFetchError("Couldn't fetch that URL: " + err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		return nil, "", newFetchError(fmt.Sprintf("Couldn't fetch the image (%d).", res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxEmojiImageBytes+1))
	if err != nil {
		return nil, "", newFetchError("Couldn't read the image: " + err.Error())
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	// strip any "; charset=..." suffix
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return body, contentType, nil
}

/**
Scrapes the first usable <img> source from an HTML page.
*/
func scrapeImageFromPage(url string) (string, bool) {
	doc := loadPage(url)
	if doc == nil {
		return "", false
	}

	src, exists := doc.Find("img[src]").First().Attr("src")
	if !exists || src == "" {
		return "", false
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return src, true
}
