package catalog

import "strings"

// volumesResponse mirrors GET /volumes.
type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title       string     `json:"title"`
	Authors     []string   `json:"authors"`
	Description string     `json:"description"`
	Categories  []string   `json:"categories"`
	ImageLinks  imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// book converts a volume, dropping entries without an id or title.
func (v volumeItem) book() (Book, bool) {
	id := strings.TrimSpace(v.ID)
	title := strings.TrimSpace(v.VolumeInfo.Title)
	if id == "" || title == "" {
		return Book{}, false
	}
	thumb := v.VolumeInfo.ImageLinks.Thumbnail
	if thumb == "" {
		thumb = v.VolumeInfo.ImageLinks.SmallThumbnail
	}
	return Book{
		ExternalID:   id,
		Title:        title,
		Authors:      v.VolumeInfo.Authors,
		ThumbnailURL: secure(thumb),
		Description:  strings.TrimSpace(v.VolumeInfo.Description),
		Categories:   v.VolumeInfo.Categories,
	}, true
}

// secure upgrades the catalog's http image links.
func secure(link string) string {
	if rest, ok := strings.CutPrefix(link, "http://"); ok {
		return "https://" + rest
	}
	return link
}
