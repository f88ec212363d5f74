// ABOUTME: Google Drive file store for client uploads
// ABOUTME: Creates per-entity folders and uploads files into them
package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

type DriveStore struct {
	svc *drive.Service
}

func NewDriveStore(ctx context.Context, client *http.Client) (*DriveStore, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &DriveStore{svc: svc}, nil
}

func (d *DriveStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		f.Parents = []string{parentID}
	}
	created, err := d.svc.Files.Create(f).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return created.Id, nil
}

func (d *DriveStore) Upload(ctx context.Context, folderID, name, mimeType string, r io.Reader) (string, error) {
	f := &drive.File{Name: name, MimeType: mimeType, Parents: []string{folderID}}
	created, err := d.svc.Files.Create(f).
		Media(r, googleapi.ContentType(mimeType)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return created.Id, nil
}
