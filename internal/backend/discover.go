package backend

import (
	"context"
	"net/http"
	"strings"
)

// MoodSearch asks the backend for reading suggestions matching a mood or
// vibe ("something cozy for a rainy weekend"). The answer is free text.
func (c *Client) MoodSearch(ctx context.Context, query string) (string, error) {
	req := moodSearchRequest{Query: strings.TrimSpace(query)}
	if err := checkInput(req); err != nil {
		return "", err
	}

	var payload moodSearchResponse
	err := c.do(ctx, request{
		op:     "mood search",
		method: http.MethodPost,
		path:   "/api/v1/mood-search",
		body:   req,
	}, &payload)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.Recommendations), nil
}

// MoodTags returns up to a few mood words for a book. A backend without mood
// analysis answers with an empty list, which is not an error. Non-empty
// answers are cached per title and author.
func (c *Client) MoodTags(ctx context.Context, title, author string) ([]string, error) {
	req := moodTagsRequest{Title: strings.TrimSpace(title), Author: strings.TrimSpace(author)}
	if err := checkInput(req); err != nil {
		return nil, err
	}
	key := strings.ToLower(req.Title) + "\x00" + strings.ToLower(req.Author)
	if tags, ok := c.moods.Get(key); ok {
		return append([]string(nil), tags...), nil
	}

	var payload moodTagsResponse
	err := c.do(ctx, request{
		op:     "mood tags",
		method: http.MethodPost,
		path:   "/api/v1/mood-tags",
		body:   req,
	}, &payload)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(payload.MoodTags))
	for _, t := range payload.MoodTags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		c.moods.Add(key, tags)
	}
	return append([]string(nil), tags...), nil
}
