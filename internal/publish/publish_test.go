package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestDirSinkPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink() error: %v", err)
	}

	ctx := context.Background()
	if err := sink.Put(ctx, "pages/home.vue", []byte("<LazyIdleA />")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := sink.Put(ctx, "pages/home.vue", []byte("<LazyIdleB />")); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "pages", "home.vue"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<LazyIdleB />" {
		t.Errorf("file = %q, want the second write", data)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "pages"))
	if len(entries) != 1 {
		t.Errorf("pages has %d entries, want 1 (temp files left behind?)", len(entries))
	}
}

func TestInvalidNames(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"../x.vue", "a/../../x.vue", "/etc/x.vue", "", "."} {
		if err := sink.Put(context.Background(), name, nil); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestDirSinkCancelled(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Put(ctx, "a.vue", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkPut(t *testing.T) {
	client := &fakeS3{}
	sink := NewS3Sink(client, "assets", "templates/")

	if err := sink.Put(context.Background(), "pages/./home.vue", []byte("<p/>")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("PutObject calls = %d, want 1", len(client.inputs))
	}
	in := client.inputs[0]
	if aws.ToString(in.Bucket) != "assets" {
		t.Errorf("Bucket = %q", aws.ToString(in.Bucket))
	}
	if aws.ToString(in.Key) != "templates/pages/home.vue" {
		t.Errorf("Key = %q", aws.ToString(in.Key))
	}
	if aws.ToString(in.ContentType) != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", aws.ToString(in.ContentType))
	}
	if client.bodies[0] != "<p/>" {
		t.Errorf("body = %q", client.bodies[0])
	}
	if in.Metadata["generator"] != "lazyhydrate" {
		t.Errorf("Metadata = %v", in.Metadata)
	}
}

func TestS3SinkErrors(t *testing.T) {
	boom := errors.New("access denied")
	sink := NewS3Sink(&fakeS3{err: boom}, "assets", "")

	if err := sink.Put(context.Background(), "a.vue", nil); !errors.Is(err, boom) {
		t.Errorf("Put() error = %v, want wrapped %v", err, boom)
	}
	if err := sink.Put(context.Background(), "../a.vue", nil); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Put() error = %v, want ErrInvalidName", err)
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := envCredentials(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("envCredentials() error = %v, want ErrNoCredentials", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	creds, err := envCredentials(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" {
		t.Errorf("creds = %+v", creds)
	}

	if c := NewS3Client("eu-west-1", "http://localhost:9000"); c == nil {
		t.Error("NewS3Client() = nil")
	}
}
