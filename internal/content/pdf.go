package content

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/knowbase/knowbase/internal/capability"
)

// FetchPDF downloads a PDF document and extracts its text.
func (f *Fetcher) FetchPDF(ctx context.Context, url string) (capability.FetchResponse, error) {
	body, _, err := f.get(ctx, url)
	if err != nil {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			ErrorDetail: errorDetail(err, "DOWNLOAD_FAILED"),
		}, nil
	}

	text, pages, err := extractPDFText(body)
	if err != nil {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			ErrorDetail: fmt.Sprintf("PARSING_ERROR: %v", err),
		}, nil
	}
	if text == "" {
		return capability.FetchResponse{
			Status:      capability.StatusError,
			PageCount:   pages,
			ErrorDetail: "EMPTY_CONTENT",
		}, nil
	}
	return capability.FetchResponse{
		Status:    capability.StatusSuccess,
		Content:   text,
		PageCount: pages,
	}, nil
}

func extractPDFText(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	pages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unparseable page should not sink the document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), pages, nil
}
