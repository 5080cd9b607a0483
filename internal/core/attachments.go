package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	blobcore "restorecore/internal/blob/core"
	"restorecore/internal/config"
	blobfs "restorecore/internal/infra/blob/fs"
	blobmemory "restorecore/internal/infra/blob/memory"
	blobs3 "restorecore/internal/infra/blob/s3"
	"restorecore/pkg/domain"
)

// MaxPhotoBytes bounds accepted photo payloads.
const MaxPhotoBytes = 2 * 1024 * 1024

// Photo aliases the domain attachment record.
type Photo = domain.Photo

// PhotoBuffer is the staging area for photo intake before a record is
// saved. Entries have no defined order until flushed; callers attach the
// flushed slice to a project, point, or observation in one transaction.
type PhotoBuffer struct {
	mu     sync.Mutex
	photos map[string]Photo
	nowFn  func() time.Time
	idFn   func() string
}

// NewPhotoBuffer constructs an empty staging buffer.
func NewPhotoBuffer() *PhotoBuffer {
	return &PhotoBuffer{
		photos: make(map[string]Photo),
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   uuid.NewString,
	}
}

// SetNowFunc overrides the clock, for tests.
func (b *PhotoBuffer) SetNowFunc(fn func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nowFn = fn
}

// Add validates and stages a photo payload. Only image content types
// within the size bound are accepted; the payload is held base64-encoded
// inline until offloaded or flushed.
func (b *PhotoBuffer) Add(name, contentType string, payload []byte) (Photo, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return Photo{}, domain.ValidationError{Entity: "photo", Field: "type", Reason: "only image content types are accepted"}
	}
	if int64(len(payload)) > MaxPhotoBytes {
		return Photo{}, domain.ValidationError{Entity: "photo", Field: "size", Reason: "payload exceeds 2MB limit"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	photo := Photo{
		ID:          b.idFn(),
		Name:        name,
		Data:        base64.StdEncoding.EncodeToString(payload),
		SizeBytes:   int64(len(payload)),
		ContentType: contentType,
		UploadedAt:  b.nowFn(),
	}
	b.photos[photo.ID] = photo
	return photo, nil
}

// Remove discards a staged photo, reporting whether it was present.
func (b *PhotoBuffer) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.photos[id]
	delete(b.photos, id)
	return ok
}

// Len reports how many photos are staged.
func (b *PhotoBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.photos)
}

// Flush drains the buffer, returning staged photos ordered by upload time
// (id breaks ties) so the attached slice is deterministic.
func (b *PhotoBuffer) Flush() []Photo {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Photo, 0, len(b.photos))
	for _, p := range b.photos {
		out = append(out, p)
	}
	b.photos = make(map[string]Photo)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// OffloadPhotos moves inline payloads into the blob store, replacing Data
// with a URL. Photos already offloaded (or with no payload) pass through
// unchanged. Keys are photos/<id>/<name>.
func OffloadPhotos(ctx context.Context, store blobcore.Store, photos []Photo) ([]Photo, error) {
	out := make([]Photo, 0, len(photos))
	for _, p := range photos {
		if p.Data == "" {
			out = append(out, p)
			continue
		}
		payload, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, domain.ValidationError{Entity: "photo", Field: "data", Reason: "inline payload is not valid base64"}
		}
		info, err := store.Put(ctx, "photos/"+p.ID+"/"+p.Name, bytes.NewReader(payload), blobcore.PutOptions{
			ContentType: p.ContentType,
			Metadata:    map[string]string{"photo_id": p.ID},
		})
		if err != nil {
			return nil, domain.StorageError{Op: "offload photo", Err: err}
		}
		p.Data = ""
		p.URL = info.URL
		if info.URL == "" {
			p.URL = info.Key
		}
		out = append(out, p)
	}
	return out, nil
}

// OpenBlobStore selects a blob backend from configuration. The s3 driver
// reads the remaining connection detail from environment variables.
func OpenBlobStore(ctx context.Context, cfg config.Blob) (blobcore.Store, error) {
	switch blobcore.Driver(cfg.Driver) {
	case blobcore.DriverFilesystem, "":
		return blobfs.New(cfg.Root)
	case blobcore.DriverS3:
		if cfg.Bucket != "" {
			return blobs3.New(ctx, blobs3.Config{Bucket: cfg.Bucket})
		}
		return blobs3.OpenFromEnv(ctx)
	case blobcore.DriverMemory:
		return blobmemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
