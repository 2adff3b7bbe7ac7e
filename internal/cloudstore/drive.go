package cloudstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/calpane/calpane/internal/model"
)

// appDataSpace is Drive's per-app private storage area. Files there are
// invisible to the user's normal Drive UI and to other apps.
const appDataSpace = "appDataFolder"

// DriveStore implements Store against Google Drive.
type DriveStore struct {
	service   *drive.Service
	tokens    TokenProvider
	online    ConnectivityProbe
	fileName  string
	baseDelay time.Duration
}

// DriveOption customizes a DriveStore.
type DriveOption func(*DriveStore)

// WithBaseDelay overrides the first backoff delay. Tests use this to keep
// retries fast.
func WithBaseDelay(d time.Duration) DriveOption {
	return func(s *DriveStore) { s.baseDelay = d }
}

// NewDriveStore creates a DriveStore.
// client should be an authenticated http.Client with the drive.appdata scope.
func NewDriveStore(ctx context.Context, client *http.Client, tokens TokenProvider, online ConnectivityProbe, opts ...DriveOption) (*DriveStore, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	s := &DriveStore{
		service:   srv,
		tokens:    tokens,
		online:    online,
		fileName:  model.ConfigFileName,
		baseDelay: defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Locate searches the app-storage area for the config file by name. An
// absent file is not an error: it returns an empty id.
func (s *DriveStore) Locate(ctx context.Context) (string, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", s.fileName)

	var fileID string
	err := withRetry(ctx, s.baseDelay, func() error {
		r, err := s.service.Files.List().
			Context(ctx).
			Spaces(appDataSpace).
			Q(q).
			PageSize(1).
			Fields(googleapi.Field("files(id, name, modifiedTime)")).
			Do()
		if err != nil {
			return err
		}
		if len(r.Files) > 0 {
			fileID = r.Files[0].Id
		}
		return nil
	})
	if err != nil {
		return "", asStoreError(err)
	}
	return fileID, nil
}

// Read downloads the raw config JSON. A missing file is success with nil
// data; the caller decides whether that means "first run".
func (s *DriveStore) Read(ctx context.Context) ([]byte, error) {
	fileID, err := s.Locate(ctx)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, nil
	}

	var content []byte
	rerr := withRetry(ctx, s.baseDelay, func() error {
		resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		content, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("unable to read file content: %w", err)
		}
		return nil
	})
	if rerr != nil {
		return nil, asStoreError(rerr)
	}
	return content, nil
}

// Write uploads content as the config file, creating it when absent and
// replacing it in place otherwise. Returns a 401-class error without any
// network call when no valid session is present.
func (s *DriveStore) Write(ctx context.Context, content []byte) error {
	if !s.tokens.Authenticated() {
		return NewStoreError(http.StatusUnauthorized, "not authenticated")
	}

	fileID, err := s.Locate(ctx)
	if err != nil {
		return err
	}

	if fileID == "" {
		f := &drive.File{
			Name:    s.fileName,
			Parents: []string{appDataSpace},
		}
		werr := withRetry(ctx, s.baseDelay, func() error {
			_, err := s.service.Files.Create(f).
				Context(ctx).
				Media(bytes.NewReader(content)).
				Fields("id").
				Do()
			return err
		})
		if werr != nil {
			return asStoreError(werr)
		}
		return nil
	}

	werr := withRetry(ctx, s.baseDelay, func() error {
		_, err := s.service.Files.Update(fileID, &drive.File{}).
			Context(ctx).
			Media(bytes.NewReader(content)).
			Fields("id").
			Do()
		return err
	})
	if werr != nil {
		return asStoreError(werr)
	}
	return nil
}

// Delete removes the remote file. An absent file counts as already deleted
// and issues no delete call.
func (s *DriveStore) Delete(ctx context.Context) error {
	fileID, err := s.Locate(ctx)
	if err != nil {
		return err
	}
	if fileID == "" {
		return nil
	}

	derr := withRetry(ctx, s.baseDelay, func() error {
		return s.service.Files.Delete(fileID).Context(ctx).Do()
	})
	if derr != nil {
		return asStoreError(derr)
	}
	return nil
}

// CheckAccess performs a lightweight read-only probe of the storage area.
func (s *DriveStore) CheckAccess(ctx context.Context) bool {
	if s.online != nil && !s.online() {
		return false
	}
	err := withRetry(ctx, s.baseDelay, func() error {
		_, err := s.service.Files.List().
			Context(ctx).
			Spaces(appDataSpace).
			PageSize(1).
			Fields("files(id)").
			Do()
		return err
	})
	if err != nil {
		log.Debug().Err(err).Msg("storage access probe failed")
		return false
	}
	return true
}
