package backend

import (
	"strings"
	"time"

	"github.com/five82/drift/internal/session"
	"github.com/five82/drift/internal/shelf"
)

const backendTimestampLayout = "2006-01-02T15:04:05.999999"

// libraryItem mirrors one entry of GET /api/v1/library/{user}.
type libraryItem struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	GoogleBooksID string `json:"google_books_id"`
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	Thumbnail     string `json:"thumbnail"`
	ShelfType     string `json:"shelf_type"`
	Progress      *int   `json:"progress"`
	Rating        *int   `json:"rating"`
	CreatedAt     string `json:"created_at"`
}

type libraryResponse struct {
	Library []libraryItem `json:"library"`
}

type itemResponse struct {
	Message string      `json:"message"`
	Item    libraryItem `json:"item"`
}

type addItemRequest struct {
	UserID        int64  `json:"user_id"`
	GoogleBooksID string `json:"google_books_id"`
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	Thumbnail     string `json:"thumbnail"`
	ShelfType     string `json:"shelf_type"`
	Progress      *int   `json:"progress,omitempty"`
}

type updateItemRequest struct {
	ShelfType string `json:"shelf_type"`
	Progress  *int   `json:"progress,omitempty"`
}

// syncRequest mirrors POST /api/v1/library/sync, which takes catalog-shaped
// volumes tagged with their shelf.
type syncRequest struct {
	UserID int64      `json:"user_id"`
	Items  []syncItem `json:"items"`
}

type syncItem struct {
	ID         string     `json:"id"`
	Shelf      string     `json:"shelf"`
	Progress   *int       `json:"progress,omitempty"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title      string     `json:"title"`
	Authors    []string   `json:"authors"`
	ImageLinks imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	Thumbnail string `json:"thumbnail,omitempty"`
}

type syncResponse struct {
	Message string `json:"message"`
	Errors  int    `json:"errors"`
}

type authResponse struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token"`
	User        session.User `json:"user"`
}

type noteRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

type noteResponse struct {
	Vibe string `json:"vibe"`
}

type moodSearchRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

type moodSearchResponse struct {
	Success         bool   `json:"success"`
	Recommendations string `json:"recommendations"`
	Query           string `json:"query"`
}

type moodTagsRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"max=255"`
}

type moodTagsResponse struct {
	Success  bool     `json:"success"`
	MoodTags []string `json:"mood_tags"`
}

// HealthResponse mirrors GET /api/v1/health.
type HealthResponse struct {
	Status   string         `json:"status"`
	Service  string         `json:"service"`
	Version  string         `json:"version"`
	Features map[string]any `json:"features"`
}

func (it libraryItem) record() shelf.RemoteRecord {
	return shelf.RemoteRecord{
		ServerID:     it.ID,
		Shelf:        shelf.Name(strings.ToLower(strings.TrimSpace(it.ShelfType))),
		ExternalID:   strings.TrimSpace(it.GoogleBooksID),
		Title:        strings.TrimSpace(it.Title),
		Authors:      splitAuthors(it.Authors),
		ThumbnailURL: strings.TrimSpace(it.Thumbnail),
		Progress:     remoteProgress(it.Progress),
		Rating:       it.Rating,
		CreatedAt:    parseTime(it.CreatedAt),
	}
}

// remoteProgress reports the progress the backend actually holds. The
// progress column defaults to 0 and no endpoint writes it, so 0 carries no
// information and must not replace a local value.
func remoteProgress(p *int) *int {
	if p == nil || *p <= 0 {
		return nil
	}
	v := *p
	return &v
}

// splitAuthors undoes the backend's comma-joined author column.
func splitAuthors(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func joinAuthors(authors []string) string {
	return strings.Join(authors, ", ")
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	// The backend emits naive UTC isoformat timestamps.
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
