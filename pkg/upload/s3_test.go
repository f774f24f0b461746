package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aiton-rag/uploadui/pkg/upload"
)

type fakeObject struct {
	data     []byte
	ct       string
	meta     map[string]string
	modified time.Time
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, ct: aws.ToString(in.ContentType), meta: in.Metadata, modified: time.Now()}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.ct),
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.meta,
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for key, obj := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key), LastModified: aws.Time(obj.modified)})
		}
	}
	return out, nil
}

func TestS3Store_SaveClaimDeletes(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := upload.NewS3Store(fake, "bucket", "staging/", 1024)

	id, err := store.Save(ctx, "report.pdf", "application/pdf", 5, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := fake.objects["staging/"+id]; !ok {
		t.Fatalf("object not stored under prefix; have %v", fake.objects)
	}

	f, err := store.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if f.Filename != "report.pdf" || f.Size != 5 || f.ContentType != "application/pdf" {
		t.Errorf("file = %+v", f)
	}
	data, _ := io.ReadAll(f)
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if len(fake.objects) != 0 {
		t.Errorf("object not deleted on close")
	}
	if _, err := store.Claim(ctx, id); !errors.Is(err, upload.ErrNotFound) {
		t.Errorf("second Claim err = %v", err)
	}
}

func TestS3Store_OpenKeepsObjectUntilRemove(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := upload.NewS3Store(fake, "bucket", "staging/", 0)
	id, err := store.Save(ctx, "notes.md", "text/markdown", 3, strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		f, err := store.Open(ctx, id)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "abc" || f.Filename != "notes.md" {
			t.Errorf("Open #%d = %q %q", i+1, f.Filename, data)
		}
	}
	if len(fake.deleted) != 0 {
		t.Fatalf("Open deleted %v", fake.deleted)
	}

	if err := store.Remove(ctx, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Open(ctx, id); !errors.Is(err, upload.ErrNotFound) {
		t.Errorf("Open after Remove err = %v", err)
	}
	if err := store.Remove(ctx, "not-a-uuid"); err != nil {
		t.Errorf("Remove(foreign id) = %v", err)
	}
}

func TestS3Store_Limits(t *testing.T) {
	ctx := context.Background()
	store := upload.NewS3Store(newFakeS3(), "bucket", "", 4)
	if _, err := store.Save(ctx, "a.txt", "", 2, strings.NewReader("too long")); !errors.Is(err, upload.ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
	if _, err := store.Claim(ctx, "../../secret"); !errors.Is(err, upload.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestS3Store_Cleanup(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := upload.NewS3Store(fake, "bucket", "staging/", 0)
	if _, err := store.Save(ctx, "a.txt", "text/plain", 1, strings.NewReader("a")); err != nil {
		t.Fatal(err)
	}
	fake.objects["other/keep"] = fakeObject{modified: time.Now().Add(-48 * time.Hour)}

	if err := store.Cleanup(ctx, time.Hour); err != nil {
		t.Fatal(err)
	}
	if len(fake.deleted) != 0 {
		t.Fatalf("fresh objects deleted: %v", fake.deleted)
	}
	if err := store.Cleanup(ctx, -time.Minute); err != nil {
		t.Fatal(err)
	}
	if len(fake.deleted) != 1 || !strings.HasPrefix(fake.deleted[0], "staging/") {
		t.Errorf("deleted = %v", fake.deleted)
	}
	if _, ok := fake.objects["other/keep"]; !ok {
		t.Error("object outside the prefix was removed")
	}
}

func TestNewS3Client(t *testing.T) {
	c := upload.NewS3Client(upload.S3Options{
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	opts := c.Options()
	if opts.Region != "us-east-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("options = %+v", opts)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil || creds.AccessKeyID != "key" {
		t.Errorf("credentials = %+v, %v", creds, err)
	}
}
