package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/linkday/internal/config"
)

const testHash = "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"

func TestComputeKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  PathConfig
		hash string
		ext  string
		want string
	}{
		{"default", DefaultPathConfig(), testHash, "png", "avatars/ab/cd/" + testHash + ".png"},
		{"no ext", DefaultPathConfig(), testHash, "", "avatars/ab/cd/" + testHash},
		{"short hash", DefaultPathConfig(), "abc", "gif", "avatars/abc.gif"},
		{"three levels", PathConfig{Prefix: "x", ShardLevels: 3, ShardWidth: 1}, "abcd", "webp", "x/a/b/c/abcd.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeKey(tt.cfg, tt.hash, tt.ext))
		})
	}

	assert.Equal(t, "avatars/ab/cd/"+testHash+".jpg", AvatarKey(testHash, "jpg"))
}

func TestValidKey(t *testing.T) {
	assert.True(t, validKey("avatars/ab/cd/x.png"))
	assert.False(t, validKey(""))
	assert.False(t, validKey("/etc/passwd"))
	assert.False(t, validKey("avatars/../../secret"))
	assert.False(t, validKey("avatars//x.png"))
}

func TestFilesystemStore_Put(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root, "", zerolog.Nop())
	require.NoError(t, err)

	key := AvatarKey(testHash, "png")
	data := []byte("\x89PNG fake")

	url, err := store.Put(context.Background(), key, "image/png", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "/"+key, url)

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	// Serving the URL path returns the object.
	w := httptest.NewRecorder()
	store.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, data, w.Body.Bytes())
}

func TestFilesystemStore_PutErrors(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "https://cdn.example.com/", zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "../escape.png", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Put(ctx, AvatarKey(testHash, "png"), "image/png", strings.NewReader("xy"), 5)
	assert.Error(t, err)

	url, err := store.Put(ctx, AvatarKey(testHash, "png"), "image/png", strings.NewReader("xy"), 2)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+AvatarKey(testHash, "png"), url)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestS3Store_Put(t *testing.T) {
	client := &mockS3{}
	store := NewS3StoreWithClient(client, "avatars-bucket", "https://cdn.example.com", zerolog.Nop())
	key := AvatarKey(testHash, "webp")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "avatars-bucket" &&
			*in.Key == key &&
			*in.ContentType == "image/webp" &&
			*in.ContentLength == 4 &&
			string(body) == "RIFF"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	url, err := store.Put(context.Background(), key, "image/webp", strings.NewReader("RIFF"), 4)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+key, url)
	client.AssertExpectations(t)
}

func TestS3Store_PutError(t *testing.T) {
	client := &mockS3{}
	store := NewS3StoreWithClient(client, "b", "https://cdn.example.com", zerolog.Nop())

	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	_, err := store.Put(context.Background(), AvatarKey(testHash, "png"), "image/png", strings.NewReader("x"), 1)
	assert.ErrorContains(t, err, "boom")

	_, err = store.Put(context.Background(), "/abs", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrInvalidKey)
	client.AssertExpectations(t)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.StorageConfig{Backend: BackendDisabled}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = New(ctx, config.StorageConfig{Backend: BackendFilesystem, DataDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &FilesystemStore{}, store)

	_, err = New(ctx, config.StorageConfig{Backend: "ftp"}, zerolog.Nop())
	assert.Error(t, err)
}
