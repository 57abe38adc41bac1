package probe

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/sha3"
	"golang.org/x/net/html/charset"
)

// readBody reads the whole body of r, failing with ErrBodyTooLarge once it
// grows past limit bytes. When decode is set the bytes are converted to
// UTF-8 if the Content-Type or an HTML meta tag declares another encoding;
// undeclared content is kept as is.
func readBody(r io.Reader, limit int64, contentType string, decode bool) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > limit {
		return "", fmt.Errorf("%w: body exceeds %d bytes", ErrBodyTooLarge, limit)
	}
	if !decode || len(raw) == 0 {
		return string(raw), nil
	}

	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || (!certain && name == "windows-1252") {
		return string(raw), nil
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), nil //nolint:nilerr // undecodable bodies are classified raw
	}
	return string(decoded), nil
}

// pageTitle returns the trimmed text of the first <title> element, or ""
// for non-HTML content.
func pageTitle(body, contentType string) string {
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

// digest returns the hex SHA3-256 of body.
func digest(body string) string {
	sum := sha3.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// drain discards a bounded amount of an unused body so the connection can
// be reused, then closes it.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}
