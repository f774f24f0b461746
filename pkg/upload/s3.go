package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options describes an S3 (or S3-compatible) staging bucket.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Store stages files as objects under a key prefix.
type S3Store struct {
	client    S3API
	presign   *s3.PresignClient
	bucket    string
	prefix    string
	maxSize   int64
	urlExpiry time.Duration
	now       func() time.Time
}

// NewS3Client builds an S3 client from opts. Static keys are used when
// given; otherwise requests go out anonymously.
func NewS3Client(opts S3Options) *s3.Client {
	o := s3.Options{
		Region:       opts.Region,
		UsePathStyle: opts.UsePathStyle,
	}
	if o.Region == "" {
		o.Region = "us-east-1"
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     opts.AccessKeyID,
			SecretAccessKey: opts.SecretAccessKey,
			Source:          "uploadui",
		}
		o.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	} else {
		o.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(o)
}

// NewS3Store creates a store over client. maxSize of 0 disables the
// size check.
func NewS3Store(client S3API, bucket, prefix string, maxSize int64) *S3Store {
	s := &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		maxSize:   maxSize,
		urlExpiry: 15 * time.Minute,
		now:       time.Now,
	}
	if c, ok := client.(*s3.Client); ok {
		s.presign = s3.NewPresignClient(c)
	}
	return s
}

// WithURLExpiry sets how long presigned URLs on claimed files stay valid.
func (s *S3Store) WithURLExpiry(d time.Duration) *S3Store {
	s.urlExpiry = d
	return s
}

func (s *S3Store) key(tempID string) string {
	return s.prefix + tempID
}

// Save buffers r and puts it as a single object.
func (s *S3Store) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}

	var buf bytes.Buffer
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(&buf, src)
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 && n > s.maxSize {
		return "", ErrTooLarge
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	tempID := uuid.NewString()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(tempID)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
		ContentType:   aws.String(contentType),
		Metadata: map[string]string{
			"original-filename": filename,
			"staged-at":         strconv.FormatInt(s.now().Unix(), 10),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload: s3 put: %w", err)
	}
	return tempID, nil
}

// Claim fetches the object. Closing the returned File deletes it.
func (s *S3Store) Claim(ctx context.Context, tempID string) (*File, error) {
	f, err := s.Open(ctx, tempID)
	if err != nil {
		return nil, err
	}
	f.Reader = &s3Object{
		ReadCloser: f.Reader,
		remove:     func() error { return s.Remove(context.WithoutCancel(ctx), tempID) },
	}
	return f, nil
}

// Open fetches the object and leaves it in the bucket.
func (s *S3Store) Open(ctx context.Context, tempID string) (*File, error) {
	if _, err := uuid.Parse(tempID); err != nil {
		return nil, ErrNotFound
	}
	key := s.key(tempID)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("upload: s3 get: %w", err)
	}

	f := &File{
		ID:          tempID,
		Filename:    tempID,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		Reader:      out.Body,
	}
	if name, ok := out.Metadata["original-filename"]; ok {
		f.Filename = name
	}
	if f.ContentType == "" {
		f.ContentType = "application/octet-stream"
	}
	if s.presign != nil {
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.urlExpiry))
		if err == nil {
			f.URL = req.URL
		}
	}
	return f, nil
}

// Remove deletes the object. S3 treats deleting a missing key as
// success.
func (s *S3Store) Remove(ctx context.Context, tempID string) error {
	if _, err := uuid.Parse(tempID); err != nil {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(tempID)),
	})
	if err != nil {
		return fmt.Errorf("upload: s3 delete: %w", err)
	}
	return nil
}

// Cleanup deletes staged objects older than maxAge.
func (s *S3Store) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := s.now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var errs []error
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("upload: s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}
			key := aws.ToString(obj.Key)
			if !strings.HasPrefix(key, s.prefix) {
				continue
			}
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

type s3Object struct {
	io.ReadCloser
	remove func() error
}

func (o *s3Object) Close() error {
	return errors.Join(o.ReadCloser.Close(), o.remove())
}
