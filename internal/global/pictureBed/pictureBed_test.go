package pictureBed

import (
	"activity-assistant/config"
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBed(t *testing.T) *PictureBed {
	pb, err := New(context.Background(), config.S3{
		Endpoint:        "http://127.0.0.1:9000",
		Bucket:          "assistant",
		Region:          "us-east-1",
		AccessKey:       "minio",
		SecretAccessKey: "minio-secret",
		Prefix:          "/dev/",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return pb
}

func TestPresignCoverUpload(t *testing.T) {
	pb := newTestBed(t)
	up, err := pb.PresignCoverUpload(context.Background(), "A20250501000001", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.FileKey, "dev/covers/A20250501000001/"))
	assert.True(t, strings.HasSuffix(up.FileKey, ".png"))
	assert.Equal(t, "PUT", up.Method)
	assert.Equal(t, "http://127.0.0.1:9000/assistant/"+up.FileKey, up.FileURL)
	assert.Equal(t, "image/png", up.Headers["Content-Type"])

	u, err := url.Parse(up.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "/assistant/"+up.FileKey, u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, err = pb.PresignCoverUpload(context.Background(), "A1", "image/gif")
	assert.Error(t, err)
}

func TestFileURL(t *testing.T) {
	pb := &PictureBed{Bucket: "b", BaseURL: "https://cdn.example.com/"}
	assert.Equal(t, "https://cdn.example.com/k.png", pb.FileURL("k.png"))
	pb.UsePathStyle = true
	assert.Equal(t, "https://cdn.example.com/b/k.png", pb.FileURL("k.png"))
}
