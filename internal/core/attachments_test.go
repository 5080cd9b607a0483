package core_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	blobmemory "restorecore/internal/infra/blob/memory"

	"restorecore/internal/core"
	"restorecore/pkg/domain"
)

func TestPhotoBufferPolicy(t *testing.T) {
	buf := core.NewPhotoBuffer()

	if _, err := buf.Add("notes.pdf", "application/pdf", []byte("pdf")); err == nil {
		t.Fatal("expected non-image content type rejected")
	}
	var vErr domain.ValidationError
	_, err := buf.Add("big.jpg", "image/jpeg", make([]byte, core.MaxPhotoBytes+1))
	if !errors.As(err, &vErr) || vErr.Field != "size" {
		t.Fatalf("expected size ValidationError, got %v", err)
	}

	photo, err := buf.Add("plot.jpg", "image/jpeg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if photo.ID == "" || photo.SizeBytes != 8 || photo.Data == "" {
		t.Fatalf("unexpected staged photo %+v", photo)
	}
	if buf.Len() != 1 {
		t.Fatalf("expected one staged photo, got %d", buf.Len())
	}
}

func TestPhotoBufferRemoveAndFlush(t *testing.T) {
	buf := core.NewPhotoBuffer()
	clock := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	buf.SetNowFunc(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	first, _ := buf.Add("a.png", "image/png", []byte("a"))
	second, _ := buf.Add("b.png", "image/png", []byte("b"))
	third, _ := buf.Add("c.png", "image/png", []byte("c"))

	if !buf.Remove(second.ID) {
		t.Fatal("expected staged photo removable")
	}
	if buf.Remove(second.ID) {
		t.Fatal("expected second removal to report absence")
	}

	flushed := buf.Flush()
	if len(flushed) != 2 {
		t.Fatalf("expected two photos, got %d", len(flushed))
	}
	if flushed[0].ID != first.ID || flushed[1].ID != third.ID {
		t.Fatal("expected flush ordered by upload time")
	}
	if buf.Len() != 0 {
		t.Fatal("expected buffer drained")
	}
}

func TestOffloadPhotos(t *testing.T) {
	ctx := context.Background()
	blob := blobmemory.New()
	buf := core.NewPhotoBuffer()
	photo, err := buf.Add("plot.jpg", "image/jpeg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	offloaded, err := core.OffloadPhotos(ctx, blob, buf.Flush())
	if err != nil {
		t.Fatalf("offload: %v", err)
	}
	if len(offloaded) != 1 {
		t.Fatalf("expected one photo, got %d", len(offloaded))
	}
	got := offloaded[0]
	if got.Data != "" {
		t.Fatal("expected inline payload cleared after offload")
	}
	if got.URL == "" {
		t.Fatal("expected offloaded photo to carry a URL or key")
	}

	_, rc, err := blob.Get(ctx, "photos/"+photo.ID+"/plot.jpg")
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	defer func() { _ = rc.Close() }()
	payload, _ := io.ReadAll(rc)
	if !bytes.Equal(payload, []byte("jpegdata")) {
		t.Fatalf("unexpected blob payload %q", payload)
	}

	// Photos without inline data pass through untouched.
	passthrough, err := core.OffloadPhotos(ctx, blob, []domain.Photo{{ID: "x", Name: "x.png", URL: "file:///x.png"}})
	if err != nil {
		t.Fatalf("passthrough: %v", err)
	}
	if passthrough[0].URL != "file:///x.png" {
		t.Fatal("expected already-offloaded photo unchanged")
	}
}
