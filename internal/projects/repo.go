package projects

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/stavlog/stavlog-backend/internal/remote"
	"github.com/stavlog/stavlog-backend/internal/rooms"
)

type Writer interface {
	Insert(ctx context.Context, table string, rec remote.Record) (remote.Record, error)
	Update(ctx context.Context, table, id string, patch remote.Record) (remote.Record, error)
	Delete(ctx context.Context, table, id string) error
}

// PhotoStorage stores photo objects and hands back their public URLs.
type PhotoStorage interface {
	UploadPhoto(ctx context.Context, projectID, filename, contentType string, body io.Reader) (string, error)
	DeletePhoto(ctx context.Context, photoURL string) error
}

type Store interface {
	ApplyBatch(ctx context.Context, batch []remote.ChangeEvent)
	ProjectByID(id string) (Project, bool)
	ActiveGroup() (Group, bool)
	ActiveContractorID() string
	LoadRooms(ctx context.Context, projectID string) ([]rooms.Room, error)
}

type Repo struct {
	writer Writer
	photos PhotoStorage
	store  Store
}

func NewRepo(writer Writer, photos PhotoStorage, store Store) *Repo {
	return &Repo{writer: writer, photos: photos, store: store}
}

// Grouped returns the active contractor's category buckets with counts.
func (r *Repo) Grouped() (Group, bool) {
	return r.store.ActiveGroup()
}

func (r *Repo) Get(id string) (Project, bool) {
	return r.store.ProjectByID(id)
}

func (r *Repo) Create(ctx context.Context, p Project) (Project, error) {
	if p.ContractorID == "" {
		p.ContractorID = r.store.ActiveContractorID()
	}
	rec, err := r.writer.Insert(ctx, Table, p.ToRecord())
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventInsert, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

func (r *Repo) Update(ctx context.Context, id string, patch remote.Record) (Project, error) {
	rec, err := r.writer.Update(ctx, Table, id, patch)
	if err != nil {
		return Project{}, fmt.Errorf("update project %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventUpdate, Table: Table, Record: rec},
	})
	return FromRecord(rec), nil
}

// SetArchived moves the project in or out of the archived bucket.
func (r *Repo) SetArchived(ctx context.Context, id string, archived bool) (Project, error) {
	return r.Update(ctx, id, remote.Record{"archived": archived})
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.writer.Delete(ctx, Table, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	r.store.ApplyBatch(ctx, []remote.ChangeEvent{
		{Type: remote.EventDelete, Table: Table, Record: remote.Record{"id": id}},
	})
	return nil
}

// Rooms returns the project's rooms, fetching on first access and again
// whenever a change event flagged any of them stale.
func (r *Repo) Rooms(ctx context.Context, projectID string) ([]rooms.Room, error) {
	p, ok := r.Get(projectID)
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, remote.ErrNotFound)
	}
	if p.RoomsLoaded && !anyStale(p.Rooms) {
		return p.Rooms, nil
	}
	return r.store.LoadRooms(ctx, projectID)
}

func anyStale(rs []rooms.Room) bool {
	for _, rm := range rs {
		if rm.Stale {
			return true
		}
	}
	return false
}

// AddPhoto uploads the image, appends it to the project's photos blob, and
// writes the updated blob back onto the row.
func (r *Repo) AddPhoto(ctx context.Context, projectID, filename, contentType, caption string, body io.Reader) (Photo, error) {
	p, ok := r.Get(projectID)
	if !ok {
		return Photo{}, fmt.Errorf("project %s: %w", projectID, remote.ErrNotFound)
	}

	url, err := r.photos.UploadPhoto(ctx, projectID, filename, contentType, body)
	if err != nil {
		return Photo{}, err
	}

	id, err := NewPhotoID()
	if err != nil {
		return Photo{}, fmt.Errorf("mint photo id: %w", err)
	}
	photo := Photo{
		ID:      id,
		URL:     url,
		Caption: caption,
		TakenAt: time.Now().UTC(),
	}

	updated := append(append([]Photo(nil), p.Photos...), photo)
	if _, err := r.Update(ctx, projectID, remote.Record{"photos": updated}); err != nil {
		return Photo{}, err
	}
	return photo, nil
}

// RemovePhoto deletes the stored object and drops the photo from the
// project's blob. The object goes first so a failed row update leaves an
// orphaned blob entry instead of a dangling URL.
func (r *Repo) RemovePhoto(ctx context.Context, projectID, photoID string) error {
	p, ok := r.Get(projectID)
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, remote.ErrNotFound)
	}

	kept := make([]Photo, 0, len(p.Photos))
	var removed *Photo
	for _, ph := range p.Photos {
		if ph.ID == photoID {
			ph := ph
			removed = &ph
			continue
		}
		kept = append(kept, ph)
	}
	if removed == nil {
		return fmt.Errorf("photo %s: %w", photoID, remote.ErrNotFound)
	}

	if err := r.photos.DeletePhoto(ctx, removed.URL); err != nil {
		return fmt.Errorf("delete photo object %s: %w", photoID, err)
	}
	_, err := r.Update(ctx, projectID, remote.Record{"photos": kept})
	return err
}
