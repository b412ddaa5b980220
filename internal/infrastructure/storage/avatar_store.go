// Package storage mirrors avatars to Google Cloud Storage.
package storage

import (
	"bytes"
	"context"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

const uploadTimeout = 10 * time.Second

// AvatarStore writes avatars to <bucket>/avatars/<user id>.png.
type AvatarStore struct {
	client *gcs.Client
	bucket string
}

func NewAvatarStore(client *gcs.Client, bucket string) *AvatarStore {
	return &AvatarStore{client: client, bucket: bucket}
}

func ObjectPath(userID string) string { return "avatars/" + userID + ".png" }

// Put uploads png and returns its public URL.
func (s *AvatarStore) Put(ctx context.Context, userID string, png []byte) (string, error) {
	c, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	return helpers.UploadObject(c, s.client, s.bucket, ObjectPath(userID), "image/png", bytes.NewReader(png))
}

func (s *AvatarStore) Remove(ctx context.Context, userID string) error {
	c, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	return helpers.DeleteObject(c, s.client, s.bucket, ObjectPath(userID))
}
