package certificates

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"certverify/verification-backend/pkg/storage"
)

// StorageProvider places certificate files in the object store
type StorageProvider struct {
	store         storage.ObjectStore
	presignExpiry time.Duration
}

func NewStorageProvider(store storage.ObjectStore, presignExpiry time.Duration) *StorageProvider {
	return &StorageProvider{store: store, presignExpiry: presignExpiry}
}

func (p *StorageProvider) Put(ctx context.Context, key string, content []byte, contentType string) error {
	return p.store.Upload(ctx, key, bytes.NewReader(content), contentType)
}

func (p *StorageProvider) Read(ctx context.Context, key string) ([]byte, error) {
	rc, err := p.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *StorageProvider) Remove(ctx context.Context, key string) error {
	return p.store.Delete(ctx, key)
}

func (p *StorageProvider) URL(ctx context.Context, key string) (string, error) {
	return p.store.GetPresignedURL(ctx, key, p.presignExpiry)
}

func (p *StorageProvider) GenerateKey(uploaderID, certID uuid.UUID, ext string) string {
	return fmt.Sprintf("certificates/%s/%s.%s", uploaderID, certID, ext)
}
