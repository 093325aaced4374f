package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// S3Store persists to an S3-compatible bucket (AWS S3 or Cloudflare R2).
// Folders are key prefixes with zero-byte marker objects, file ids are object
// keys, and properties travel as a JSON blob in object metadata because S3
// lower-cases metadata keys.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds a store from static credentials. When endpoint is empty
// and accountID is set, the Cloudflare R2 endpoint is derived from it.
func NewS3Store(ctx context.Context, accountID, accessKey, secretKey, bucket, endpoint string) (*S3Store, error) {
	if accessKey == "" || secretKey == "" || bucket == "" {
		return nil, errors.New("missing S3 credentials or bucket")
	}
	if endpoint == "" && accountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &S3Store{client: client, bucket: bucket}, nil
}

func (s *S3Store) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	key := parentID + sanitizeKeyPart(name) + "/"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	key := parentID + sanitizeKeyPart(name) + "/"
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return "", nil
		}
		return "", err
	}
	return key, nil
}

func (s *S3Store) ListFolders(ctx context.Context, parentID string) ([]*File, error) {
	var out []*File
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(parentID),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, cp := range page.CommonPrefixes {
			prefix := aws.ToString(cp.Prefix)
			name := strings.TrimSuffix(strings.TrimPrefix(prefix, parentID), "/")
			out = append(out, &File{ID: prefix, Name: name})
		}
	}
	return out, nil
}

func (s *S3Store) CreateFile(ctx context.Context, name, parentID, mimeType string, properties map[string]string, content io.Reader) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := parentID + id

	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	props, err := json.Marshal(properties)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
		Metadata: map[string]string{
			"name":    name,
			"created": time.Now().UTC().Format(time.RFC3339),
			"props":   string(props),
		},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) ListFiles(ctx context.Context, parentID string) ([]*File, error) {
	var out []*File
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(parentID),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == parentID || strings.HasSuffix(key, "/") {
				continue // folder markers
			}
			f, err := s.GetFile(ctx, key)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *S3Store) GetFile(ctx context.Context, id string) (*File, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.fromHead(id, head.ContentType, head.ContentLength, head.Metadata), nil
}

func (s *S3Store) ReadContent(ctx context.Context, id string) (io.ReadCloser, error) {
	res, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res.Body, nil
}

func (s *S3Store) ReadContentRange(ctx context.Context, id string, start, end int64) (io.ReadCloser, int64, error) {
	res, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	total := aws.ToInt64(res.ContentLength)
	if cr := aws.ToString(res.ContentRange); cr != "" {
		if i := strings.LastIndexByte(cr, '/'); i >= 0 {
			if n, err := strconv.ParseInt(cr[i+1:], 10, 64); err == nil {
				total = n
			}
		}
	}
	return res.Body, total, nil
}

// UpdateProperties rewrites the object's metadata in place with CopyObject.
// S3 has no metadata patch, so this is a full replace of the merged map.
func (s *S3Store) UpdateProperties(ctx context.Context, id string, patch map[string]string) error {
	f, err := s.GetFile(ctx, id)
	if err != nil {
		return err
	}
	for k, v := range patch {
		f.Properties[k] = v
	}

	props, err := json.Marshal(f.Properties)
	if err != nil {
		return err
	}

	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		CopySource:        aws.String(s.bucket + "/" + id),
		Key:               aws.String(id),
		ContentType:       aws.String(f.MIMEType),
		MetadataDirective: types.MetadataDirectiveReplace,
		Metadata: map[string]string{
			"name":    f.Name,
			"created": f.CreatedAt.UTC().Format(time.RFC3339),
			"props":   string(props),
		},
	})
	return err
}

// AllowPublicRead sets a public-read canned ACL. Buckets with ACLs disabled
// should instead expose the audio prefix through a bucket policy.
func (s *S3Store) AllowPublicRead(ctx context.Context, id string) error {
	_, err := s.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	return err
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	return err
}

func (s *S3Store) fromHead(id string, contentType *string, contentLength *int64, metadata map[string]string) *File {
	props := map[string]string{}
	if raw := metadata["props"]; raw != "" {
		// best effort; a foreign object without our metadata yields empty props
		_ = json.Unmarshal([]byte(raw), &props)
	}

	name := metadata["name"]
	if name == "" {
		if i := strings.LastIndexByte(id, '/'); i >= 0 {
			name = id[i+1:]
		} else {
			name = id
		}
	}

	created, _ := time.Parse(time.RFC3339, metadata["created"])

	return &File{
		ID:         id,
		Name:       name,
		MIMEType:   aws.ToString(contentType),
		Size:       aws.ToInt64(contentLength),
		Properties: props,
		CreatedAt:  created,
	}
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

// sanitizeKeyPart keeps caller-supplied names from escaping their prefix.
func sanitizeKeyPart(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}

var (
	_ Store       = (*S3Store)(nil)
	_ RangeReader = (*S3Store)(nil)
)
