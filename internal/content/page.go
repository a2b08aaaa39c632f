package content

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/knowbase/knowbase/internal/capability"
)

// FetchPage scrapes an ordinary web page and returns its visible text.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (capability.FetchResponse, error) {
	body, _, err := f.get(ctx, url)
	if err != nil {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			ErrorDetail: errorDetail(err, "TIMEOUT"),
		}, nil
	}

	text, title := extractPageText(string(body))
	if text == "" {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			PageTitle:   title,
			ErrorDetail: "EMPTY_CONTENT",
		}, nil
	}
	return capability.FetchResponse{
		Status:    capability.StatusSuccess,
		Content:   text,
		PageTitle: title,
	}, nil
}

// extractPageText strips markup and returns (visible text, title).
// script/style and other non-content elements are skipped.
func extractPageText(htmlSrc string) (string, string) {
	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return "", ""
	}

	var sb strings.Builder
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String()), title
}
