package domain

import "time"

// GenerationStatus enumerates artifact record states.
type GenerationStatus string

const (
	GenerationStatusPending   GenerationStatus = "PENDING"
	GenerationStatusCompleted GenerationStatus = "COMPLETED"
	GenerationStatusFailed    GenerationStatus = "FAILED"
)

// Generation is a materialized artifact record. A record exists only after
// the upstream prediction succeeded; while the job is in flight the
// prediction id is the sole handle. The Unlocked flag is monotonic: once
// true it never reverts, and re-unlocking never charges again.
//
// OriginalImage must never leave a read path while Unlocked is false; locked
// records expose PreviewImage only.
type Generation struct {
	ID            string
	AccountID     *string
	ParentID      *string
	Prompt        string
	Style         string
	OriginalImage string
	PreviewImage  string
	Status        GenerationStatus
	Unlocked      bool
	Cost          int64
	CreatedAt     time.Time
}

// Owner reports the owning account id, or "" when the record is unclaimed.
func (g *Generation) Owner() string {
	if g.AccountID == nil {
		return ""
	}
	return *g.AccountID
}

// GalleryItem is the read shape exposed by listing endpoints. Image carries
// the preview for locked records and the original for unlocked ones.
type GalleryItem struct {
	ID        string
	Image     string
	Unlocked  bool
	CreatedAt time.Time
}

// GalleryItemFrom maps a generation to its public listing shape.
func GalleryItemFrom(g Generation) GalleryItem {
	item := GalleryItem{
		ID:        g.ID,
		Image:     g.PreviewImage,
		Unlocked:  g.Unlocked,
		CreatedAt: g.CreatedAt,
	}
	if g.Unlocked {
		item.Image = g.OriginalImage
	}
	return item
}
