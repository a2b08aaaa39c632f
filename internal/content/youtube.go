package content

import (
	"context"
	"encoding/xml"
	stdhtml "html"
	"net/url"
	"strings"

	"github.com/knowbase/knowbase/internal/capability"
)

// FetchTranscript retrieves the caption track of a YouTube video via
// the timedtext endpoint.
func (f *Fetcher) FetchTranscript(ctx context.Context, videoURL string) (capability.FetchResponse, error) {
	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			ErrorDetail: "INVALID_URL",
		}, nil
	}
	title := "YouTube Video " + videoID

	endpoint := "https://video.google.com/timedtext?lang=en&v=" + url.QueryEscape(videoID)
	body, _, err := f.get(ctx, endpoint)
	if err != nil {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			VideoTitle:  title,
			ErrorDetail: "VIDEO_UNAVAILABLE",
		}, nil
	}

	text := parseTimedText(body)
	if text == "" {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			VideoTitle:  title,
			ErrorDetail: "NO_TRANSCRIPT_FOUND",
		}, nil
	}
	return capability.FetchResponse{
		Status:     capability.StatusSuccess,
		Content:    text,
		VideoTitle: title,
	}, nil
}

// ExtractVideoID pulls the video id out of youtube.com/watch?v= and
// youtu.be/ URLs. Returns "" for anything else.
func ExtractVideoID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	switch {
	case host == "youtu.be":
		return strings.TrimPrefix(parsed.Path, "/")
	case strings.Contains(host, "youtube"):
		return parsed.Query().Get("v")
	}
	return ""
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// parseTimedText joins caption lines into one transcript string.
// Caption payloads arrive HTML-entity encoded on top of the XML
// escaping, so entities are unescaped once more after decoding.
func parseTimedText(body []byte) string {
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return ""
	}
	parts := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if text := strings.TrimSpace(stdhtml.UnescapeString(line.Text)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
