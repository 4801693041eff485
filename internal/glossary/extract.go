package glossary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// MaxPageText bounds how much page text is handed to the model
const MaxPageText = 20000

var (
	ErrEmptyPage  = errors.New("no text content found on the page")
	ErrNoKeywords = errors.New("no keywords found in the content")
)

// Keyword is one term proposed by an extractor.
type Keyword struct {
	Term        string `json:"term"`
	Translation string `json:"translation"`
	Category    string `json:"category"`
}

// Extractor turns page text into glossary keywords.
type Extractor interface {
	ExtractKeywords(ctx context.Context, pageText string) ([]Keyword, error)
}

// PageText returns the visible text of an HTML document with scripts,
// styles and comments removed and whitespace collapsed.
func PageText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(strings.Fields(b.String()), " ")
	return truncate(text, MaxPageText), nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// FetchPageText downloads url and extracts its visible text.
func FetchPageText(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to fetch URL: %s", resp.Status)
	}

	text, err := PageText(resp.Body)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPage
	}
	return text, nil
}

// Import fetches url, asks the extractor for keywords and stores them
// scoped to (source, target). It returns the entries that were added.
func Import(ctx context.Context, store Store, client *http.Client, ex Extractor, url, source, target string) ([]Entry, error) {
	text, err := FetchPageText(ctx, client, url)
	if err != nil {
		return nil, err
	}

	keywords, err := ex.ExtractKeywords(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	var added []Entry
	for _, kw := range keywords {
		e, err := store.Add(ctx, Entry{
			Term:        kw.Term,
			Replacement: kw.Translation,
			SourceLang:  source,
			TargetLang:  target,
		})
		if errors.Is(err, ErrEmptyTerm) {
			log.Printf("glossary: skipping keyword with empty term (category %q)", kw.Category)
			continue
		}
		if err != nil {
			return added, err
		}
		added = append(added, e)
	}
	if len(added) == 0 {
		return nil, ErrNoKeywords
	}
	return added, nil
}
