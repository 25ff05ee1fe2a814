package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/five82/drift/internal/shelf"
)

// GenerateNote asks the backend for a short "vibe" note about a book.
// Notes are cached per title and author for the life of the client.
func (c *Client) GenerateNote(ctx context.Context, title, author, description string) (string, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return "", &shelf.ValidationError{Field: "title", Reason: "is required"}
	}
	key := strings.ToLower(title) + "\x00" + strings.ToLower(author)
	if note, ok := c.notes.Get(key); ok {
		return note, nil
	}

	var payload noteResponse
	err := c.do(ctx, request{
		op:     "generate note",
		method: http.MethodPost,
		path:   "/api/v1/generate-note",
		body:   noteRequest{Title: title, Author: author, Description: strings.TrimSpace(description)},
	}, &payload)
	if err != nil {
		return "", err
	}
	note := strings.TrimSpace(payload.Vibe)
	if note != "" {
		c.notes.Add(key, note)
	}
	return note, nil
}
