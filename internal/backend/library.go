package backend

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/five82/drift/internal/session"
	"github.com/five82/drift/internal/shelf"
)

// LibraryService is the remote half of the shelf state. *Client implements it;
// the reconciler depends only on this interface.
type LibraryService interface {
	FetchSnapshot(ctx context.Context, sess session.Session) (shelf.RemoteSnapshot, error)
	UpsertOne(ctx context.Context, sess session.Session, rec shelf.BookRecord, target shelf.Name) (int64, error)
	UpdateOne(ctx context.Context, sess session.Session, serverID int64, target shelf.Name, progress *int) error
	BulkUpsert(ctx context.Context, sess session.Session, items []shelf.PendingItem) (map[string]int64, error)
	DeleteOne(ctx context.Context, sess session.Session, serverID int64) error
}

// Ensure Client implements LibraryService at compile time.
var _ LibraryService = (*Client)(nil)

// FetchSnapshot retrieves every shelf entry the backend holds for the user.
func (c *Client) FetchSnapshot(ctx context.Context, sess session.Session) (shelf.RemoteSnapshot, error) {
	const op = "fetch snapshot"
	if err := requireSession(op, sess); err != nil {
		return nil, err
	}
	var payload libraryResponse
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/api/v1/library/" + strconv.FormatInt(sess.User.ID, 10),
		token:  sess.Token,
	}, &payload)
	if err != nil {
		return nil, err
	}
	snap := make(shelf.RemoteSnapshot, 0, len(payload.Library))
	for _, item := range payload.Library {
		snap = append(snap, item.record())
	}
	return snap, nil
}

// UpsertOne files one record remotely and returns its server id. The backend
// updates the shelf in place when the book is already in the user's library.
func (c *Client) UpsertOne(ctx context.Context, sess session.Session, rec shelf.BookRecord, target shelf.Name) (int64, error) {
	const op = "upsert item"
	if err := requireSession(op, sess); err != nil {
		return 0, err
	}
	var payload itemResponse
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/api/v1/library",
		token:  sess.Token,
		body: addItemRequest{
			UserID:        sess.User.ID,
			GoogleBooksID: rec.ExternalID,
			Title:         rec.Title,
			Authors:       joinAuthors(rec.Authors),
			Thumbnail:     rec.ThumbnailURL,
			ShelfType:     string(target),
			Progress:      rec.Progress,
		},
	}, &payload)
	if err != nil {
		return 0, err
	}
	if payload.Item.ID <= 0 {
		return 0, &NetworkError{Op: op, Status: http.StatusCreated, Err: fmt.Errorf("response carried no item id")}
	}
	return payload.Item.ID, nil
}

// UpdateOne moves an existing remote entry to target. Progress is sent for
// backends that store it; the library service only applies shelf_type.
func (c *Client) UpdateOne(ctx context.Context, sess session.Session, serverID int64, target shelf.Name, progress *int) error {
	const op = "update item"
	if err := requireSession(op, sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     op,
		method: http.MethodPut,
		path:   "/api/v1/library/" + strconv.FormatInt(serverID, 10),
		token:  sess.Token,
		body:   updateItemRequest{ShelfType: string(target), Progress: progress},
	}, nil)
}

// BulkUpsert pushes local-only records in one request. The sync endpoint does
// not echo identifiers, so the snapshot is re-read to map each uploaded
// external id to its new server id. Records the backend skipped are absent
// from the returned map and stay pending.
func (c *Client) BulkUpsert(ctx context.Context, sess session.Session, items []shelf.PendingItem) (map[string]int64, error) {
	const op = "bulk upsert"
	if err := requireSession(op, sess); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return map[string]int64{}, nil
	}

	body := syncRequest{UserID: sess.User.ID, Items: make([]syncItem, 0, len(items))}
	wanted := make(map[string]struct{}, len(items))
	for _, it := range items {
		wanted[it.Record.ExternalID] = struct{}{}
		body.Items = append(body.Items, syncItem{
			ID:       it.Record.ExternalID,
			Shelf:    string(it.Shelf),
			Progress: it.Record.Progress,
			VolumeInfo: volumeInfo{
				Title:      it.Record.Title,
				Authors:    it.Record.Authors,
				ImageLinks: imageLinks{Thumbnail: it.Record.ThumbnailURL},
			},
		})
	}

	var payload syncResponse
	if err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/api/v1/library/sync",
		token:  sess.Token,
		body:   body,
	}, &payload); err != nil {
		return nil, err
	}

	snap, err := c.FetchSnapshot(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve ids: %w", op, err)
	}
	ids := make(map[string]int64, len(items))
	for _, rec := range snap {
		if _, ok := wanted[rec.ExternalID]; ok && rec.ServerID > 0 {
			ids[rec.ExternalID] = rec.ServerID
		}
	}
	return ids, nil
}

// DeleteOne removes a remote entry. An entry that is already gone counts as
// deleted.
func (c *Client) DeleteOne(ctx context.Context, sess session.Session, serverID int64) error {
	const op = "delete item"
	if err := requireSession(op, sess); err != nil {
		return err
	}
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodDelete,
		path:   "/api/v1/library/" + strconv.FormatInt(serverID, 10),
		token:  sess.Token,
	}, nil)
	if statusOf(err) == http.StatusNotFound {
		return nil
	}
	return err
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var payload HealthResponse
	err := c.do(ctx, request{op: "health", method: http.MethodGet, path: "/api/v1/health"}, &payload)
	return payload, err
}

func requireSession(op string, sess session.Session) error {
	if !sess.Valid() {
		return &NotAuthenticatedError{Op: op}
	}
	return nil
}
