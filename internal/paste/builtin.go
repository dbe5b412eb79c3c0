package paste

import (
	"context"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Block kinds targeted by the built-in patterns.
const (
	KindEmbed = "embed"
	KindImage = "image"
	KindLink  = "link"
	KindCode  = "code"
)

// Built-in priorities. More specific patterns outrank more general ones; a
// consumer overriding a built-in must register strictly higher or replace it
// by name.
const (
	PriorityYouTube = 20
	PriorityImage   = 15
	PriorityURL     = 10
	PriorityJSON    = 5
)

var (
	youtubeRe = regexp.MustCompile(`^https?://(?:www\.)?(?:youtube\.com/watch\?\S*?v=|youtu\.be/)([A-Za-z0-9_-]{6,})(?:\S*)$`)
	imageRe   = regexp.MustCompile(`(?i)^https?://\S+\.(?:png|jpe?g|gif|webp|svg)$`)
	urlRe     = regexp.MustCompile(`^https?://\S+$`)
)

// Builtins returns the built-in patterns. The fetcher enriches bare URLs
// with the remote page title; it may be nil to disable enrichment.
func Builtins(fetcher *TitleFetcher) []Pattern {
	return []Pattern{
		{
			Name:     "youtubeUrl",
			Kind:     KindEmbed,
			Priority: PriorityYouTube,
			Match:    RegexpMatcher(youtubeRe),
			Produce:  produceYouTube,
		},
		{
			Name:     "imageUrl",
			Kind:     KindImage,
			Priority: PriorityImage,
			Match:    RegexpMatcher(imageRe),
			Produce:  produceImage,
		},
		{
			Name:     "url",
			Kind:     KindLink,
			Priority: PriorityURL,
			Match:    RegexpMatcher(urlRe),
			Produce:  produceLink(fetcher),
		},
		{
			Name:     "json",
			Kind:     KindCode,
			Priority: PriorityJSON,
			Match:    matchJSON,
			Produce:  produceJSON,
		},
	}
}

func produceYouTube(_ context.Context, text string, m Match) (map[string]any, error) {
	id := m.Groups[1]
	return map[string]any{
		"service": "youtube",
		"source":  text,
		"embed":   "https://www.youtube.com/embed/" + id,
		"id":      id,
	}, nil
}

func produceImage(_ context.Context, text string, _ Match) (map[string]any, error) {
	return map[string]any{
		"url":     text,
		"caption": "",
	}, nil
}

// produceLink yields a link payload, enriched with the remote page title
// when the fetch succeeds within the producer's deadline. Fetch failures
// degrade silently to the bare link.
func produceLink(fetcher *TitleFetcher) ProducerFunc {
	return func(ctx context.Context, text string, _ Match) (map[string]any, error) {
		payload := map[string]any{"link": text}
		if fetcher == nil {
			return payload, nil
		}

		title, err := fetcher.Title(ctx, text)
		if err != nil {
			fetcher.logger.Debug().Str("url", text).Err(err).Msg("title enrichment degraded to raw match")
			return payload, nil
		}
		payload["meta"] = map[string]any{"title": title}
		return payload, nil
	}
}

// matchJSON accepts pasted text that is a syntactically valid JSON object
// or array.
func matchJSON(text string) (Match, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return Match{}, false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return Match{}, false
	}
	if !gjson.Valid(trimmed) {
		return Match{}, false
	}
	return Match{Text: trimmed}, true
}

func produceJSON(_ context.Context, _ string, m Match) (map[string]any, error) {
	return map[string]any{
		"code":     m.Text,
		"language": "json",
	}, nil
}
