package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePutter records uploaded keys and body sizes.
type fakePutter struct {
	keys []string
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, *in.Key)
	// Drain the body like the real client would.
	if _, err := io.Copy(io.Discard, in.Body); err != nil {
		return nil, err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestNewUploader_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing bucket", cfg: Config{Endpoint: "e", AccessKeyID: "k", SecretAccessKey: "s"}},
		{name: "missing endpoint", cfg: Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}},
		{name: "missing credentials", cfg: Config{Bucket: "b", Endpoint: "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewUploader(tt.cfg, nil); err == nil {
				t.Error("NewUploader() should reject incomplete config")
			}
		})
	}
}

func newSessionWithArtifacts(t *testing.T, artifacts ...string) string {
	t.Helper()
	roomDir := filepath.Join(t.TempDir(), "42")
	sessionDir := filepath.Join(roomDir, "2026-03-01_20-00-00")
	analysisDir := filepath.Join(sessionDir, "analysis")
	if err := os.MkdirAll(analysisDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range artifacts {
		if err := os.WriteFile(filepath.Join(analysisDir, name), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return sessionDir
}

func TestArchiveSession_UploadsArtifacts(t *testing.T) {
	sessionDir := newSessionWithArtifacts(t, "chat_frequency.png", "complete_suggestion.txt")
	putter := &fakePutter{}
	u := &Uploader{client: putter, bucket: "artifacts", logger: newTestLogger()}

	if err := u.ArchiveSession(context.Background(), sessionDir); err != nil {
		t.Fatalf("ArchiveSession() unexpected error = %v", err)
	}
	if len(putter.keys) != 2 {
		t.Fatalf("uploaded %d objects, want 2: %v", len(putter.keys), putter.keys)
	}
	want := "42/2026-03-01_20-00-00/analysis/chat_frequency.png"
	if putter.keys[0] != want {
		t.Errorf("key = %q, want %q", putter.keys[0], want)
	}
}

func TestArchiveSession_NoAnalysisDirIsNoop(t *testing.T) {
	sessionDir := filepath.Join(t.TempDir(), "2026-03-01_20-00-00")
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		t.Fatal(err)
	}
	putter := &fakePutter{}
	u := &Uploader{client: putter, bucket: "artifacts", logger: newTestLogger()}

	if err := u.ArchiveSession(context.Background(), sessionDir); err != nil {
		t.Fatalf("ArchiveSession() unexpected error = %v", err)
	}
	if len(putter.keys) != 0 {
		t.Errorf("uploaded %v from a session with no analysis dir", putter.keys)
	}
}

func TestArchiveSession_PutFailure(t *testing.T) {
	sessionDir := newSessionWithArtifacts(t, "chart.png")
	putter := &fakePutter{err: errors.New("bucket unreachable")}
	u := &Uploader{client: putter, bucket: "artifacts", logger: newTestLogger()}

	if err := u.ArchiveSession(context.Background(), sessionDir); err == nil {
		t.Error("ArchiveSession() should surface the upload failure")
	}
}
