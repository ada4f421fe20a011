// Package atom parses YouTube WebSub notification payloads.
//
// The hub delivers Atom feeds with yt-namespaced video and channel IDs:
//
//	<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
//	      xmlns="http://www.w3.org/2005/Atom">
//	  <entry>
//	    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
//	    <yt:channelId>UC...</yt:channelId>
//	    <title>...</title>
//	    <published>2015-03-06T21:40:57+00:00</published>
//	  </entry>
//	</feed>
//
// Deletion notices arrive as at:deleted-entry feeds with no entry element.
package atom

import (
	"encoding/xml"
	"strings"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

// Notification is one parsed video publication notice.
type Notification struct {
	VideoID      string
	ChannelID    string
	Title        string
	ChannelTitle string
	Published    string
	VideoURL     string
}

type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

type entry struct {
	VideoID   string `xml:"videoId"`
	ChannelID string `xml:"channelId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Author    author `xml:"author"`
}

type author struct {
	Name string `xml:"name"`
}

// Parse extracts the first video entry from a notification payload.
func Parse(payload []byte) (Notification, error) {
	var parsed feed
	if err := xml.Unmarshal(payload, &parsed); err != nil {
		return Notification{}, apperrors.Wrap(apperrors.CodeWebhookUnparsableFeed, "decode atom feed", err)
	}
	if len(parsed.Entries) == 0 {
		return Notification{}, apperrors.New(apperrors.CodeWebhookUnparsableFeed, "feed carries no entry")
	}

	first := parsed.Entries[0]
	videoID := strings.TrimSpace(first.VideoID)
	channelID := strings.TrimSpace(first.ChannelID)
	if videoID == "" || channelID == "" {
		return Notification{}, apperrors.New(apperrors.CodeWebhookUnparsableFeed, "feed entry is missing video or channel id")
	}

	return Notification{
		VideoID:      videoID,
		ChannelID:    channelID,
		Title:        strings.TrimSpace(first.Title),
		ChannelTitle: strings.TrimSpace(first.Author.Name),
		Published:    strings.TrimSpace(first.Published),
		VideoURL:     video.WatchURL(videoID),
	}, nil
}
