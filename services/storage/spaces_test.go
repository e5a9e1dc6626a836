package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *SpacesClient {
	t.Helper()
	client, err := NewSpacesClient(SpacesConfig{
		AccessKey: "test-access-key",
		SecretKey: "test-secret-key",
		Bucket:    "academy-media",
		Region:    "sfo3",
		Endpoint:  "https://sfo3.digitaloceanspaces.com",
	})
	require.NoError(t, err)
	return client
}

func TestNormalizeKey(t *testing.T) {
	client := testClient(t)

	cases := []struct {
		name string
		ref  string
		want string
	}{
		{"bare key", "videos/1_intro.mp4", "videos/1_intro.mp4"},
		{"leading slash", "/videos/1_intro.mp4", "videos/1_intro.mp4"},
		{"bucket prefixed", "academy-media/videos/1_intro.mp4", "videos/1_intro.mp4"},
		{"full url", "https://academy-media.sfo3.digitaloceanspaces.com/videos/1_intro.mp4", "videos/1_intro.mp4"},
		{"path style url", "https://sfo3.digitaloceanspaces.com/academy-media/videos/1_intro.mp4", "videos/1_intro.mp4"},
		{"whitespace", "  videos/1_intro.mp4 ", "videos/1_intro.mp4"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, client.NormalizeKey(tc.ref))
		})
	}
}

func TestPresignGet(t *testing.T) {
	client := testClient(t)

	url, err := client.PresignGet("videos/1_intro.mp4", VideoURLTTL)
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "videos/1_intro.mp4"))
	assert.True(t, strings.Contains(url, "X-Amz-Expires=300"))

	_, err = client.PresignGet("   ", VideoURLTTL)
	assert.Error(t, err)
}

func TestPresignGetWithFilename(t *testing.T) {
	client := testClient(t)

	url, err := client.PresignGetWithFilename("attachments/notes.pdf", "Course Notes.pdf", DownloadURLTTL)
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "attachments/notes.pdf"))
	assert.True(t, strings.Contains(url, "response-content-disposition"))
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("videos", "intro.mp4")
	assert.True(t, strings.HasPrefix(key, "videos/"))
	assert.True(t, strings.HasSuffix(key, "_intro.mp4"))
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "video/mp4", GetContentType("lecture.mp4"))
	assert.Equal(t, "application/pdf", GetContentType("Notes.PDF"))
	assert.Equal(t, "image/jpeg", GetContentType("thumb.jpg"))
	assert.Equal(t, "application/octet-stream", GetContentType("archive.zip"))
}
