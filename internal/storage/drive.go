package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMIMEType = "application/vnd.google-apps.folder"

// DriveStore persists to Google Drive. Folders are Drive folders, file
// metadata lives in Drive's custom properties map, public visibility is an
// anyone-reader permission.
type DriveStore struct {
	svc *drive.Service
}

// NewDriveStore builds a store authenticated with an OAuth refresh token,
// the same credential shape the app has always used.
func NewDriveStore(ctx context.Context, clientID, clientSecret, refreshToken string) (*DriveStore, error) {
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, errors.New("missing Google OAuth credentials")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope},
	}
	client := conf.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &DriveStore{svc: svc}, nil
}

// NewDriveReadOnlyStore builds a store authenticated as a service account
// with read-only scope. Used for audio streaming when configured.
func NewDriveReadOnlyStore(ctx context.Context, clientEmail, privateKey string) (*DriveStore, error) {
	if clientEmail == "" || privateKey == "" {
		return nil, errors.New("missing Google service account credentials")
	}

	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(strings.ReplaceAll(privateKey, `\n`, "\n")),
		Scopes:     []string{drive.DriveReadonlyScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &DriveStore{svc: svc}, nil
}

func (s *DriveStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	created, err := s.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMIMEType,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", mapDriveErr(err)
	}
	return created.Id, nil
}

func (s *DriveStore) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(name), escapeQuery(parentID), folderMIMEType)

	res, err := s.svc.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", mapDriveErr(err)
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

func (s *DriveStore) ListFolders(ctx context.Context, parentID string) ([]*File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(parentID), folderMIMEType)
	return s.list(ctx, q)
}

func (s *DriveStore) CreateFile(ctx context.Context, name, parentID, mimeType string, properties map[string]string, content io.Reader) (string, error) {
	created, err := s.svc.Files.Create(&drive.File{
		Name:       name,
		Parents:    []string{parentID},
		Properties: properties,
	}).Media(content, googleapi.ContentType(mimeType)).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", mapDriveErr(err)
	}
	return created.Id, nil
}

func (s *DriveStore) ListFiles(ctx context.Context, parentID string) ([]*File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType!='%s' and trashed=false",
		escapeQuery(parentID), folderMIMEType)
	return s.list(ctx, q)
}

func (s *DriveStore) list(ctx context.Context, q string) ([]*File, error) {
	var out []*File
	pageToken := ""
	for {
		call := s.svc.Files.List().Q(q).
			Fields("files(id, name, mimeType, size, properties, createdTime)", "nextPageToken").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, mapDriveErr(err)
		}
		for _, f := range res.Files {
			out = append(out, fromDriveFile(f))
		}
		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
}

func (s *DriveStore) GetFile(ctx context.Context, id string) (*File, error) {
	f, err := s.svc.Files.Get(id).
		Fields("id, name, mimeType, size, properties, createdTime").
		Context(ctx).Do()
	if err != nil {
		return nil, mapDriveErr(err)
	}
	return fromDriveFile(f), nil
}

func (s *DriveStore) ReadContent(ctx context.Context, id string) (io.ReadCloser, error) {
	res, err := s.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, mapDriveErr(err)
	}
	return res.Body, nil
}

func (s *DriveStore) ReadContentRange(ctx context.Context, id string, start, end int64) (io.ReadCloser, int64, error) {
	call := s.svc.Files.Get(id).Context(ctx)
	call.Header().Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	res, err := call.Download()
	if err != nil {
		return nil, 0, mapDriveErr(err)
	}

	total := res.ContentLength
	// Content-Range: bytes <start>-<end>/<total>
	if cr := res.Header.Get("Content-Range"); cr != "" {
		if i := strings.LastIndexByte(cr, '/'); i >= 0 {
			if n, err := strconv.ParseInt(cr[i+1:], 10, 64); err == nil {
				total = n
			}
		}
	}
	return res.Body, total, nil
}

func (s *DriveStore) UpdateProperties(ctx context.Context, id string, patch map[string]string) error {
	_, err := s.svc.Files.Update(id, &drive.File{Properties: patch}).Context(ctx).Do()
	return mapDriveErr(err)
}

func (s *DriveStore) AllowPublicRead(ctx context.Context, id string) error {
	_, err := s.svc.Permissions.Create(id, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	return mapDriveErr(err)
}

func (s *DriveStore) Delete(ctx context.Context, id string) error {
	return mapDriveErr(s.svc.Files.Delete(id).Context(ctx).Do())
}

func fromDriveFile(f *drive.File) *File {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	props := f.Properties
	if props == nil {
		props = map[string]string{}
	}
	return &File{
		ID:         f.Id,
		Name:       f.Name,
		MIMEType:   f.MimeType,
		Size:       f.Size,
		Properties: props,
		CreatedAt:  created,
	}
}

// escapeQuery escapes single quotes inside a Drive query literal.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}

func mapDriveErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return ErrNotFound
	}
	return err
}

var (
	_ Store       = (*DriveStore)(nil)
	_ RangeReader = (*DriveStore)(nil)
)
