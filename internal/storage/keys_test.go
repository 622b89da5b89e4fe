package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeyLayout(t *testing.T) {
	propertyID := uuid.New()

	key := ObjectKey(propertyID, "Balcony View.JPG")

	assert.True(t, strings.HasPrefix(key, PropertyPrefix(propertyID)))
	assert.True(t, strings.HasSuffix(key, ".jpg"), "extension should be lowercased")

	// the original filename never leaks into the key
	assert.NotContains(t, key, "Balcony")

	ts, ok := KeyTimestamp(key)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestObjectKeysForSameFilenameDiffer(t *testing.T) {
	propertyID := uuid.New()
	a := ObjectKey(propertyID, "photo.png")
	b := ObjectKey(propertyID, "photo.png")
	assert.NotEqual(t, a, b)
}

func TestObjectKeyWithoutExtension(t *testing.T) {
	key := ObjectKey(uuid.New(), "snapshot")
	ts, ok := KeyTimestamp(key)
	require.True(t, ok)
	assert.False(t, ts.IsZero())
}

func TestKeyTimestampRejectsForeignLayouts(t *testing.T) {
	for _, key := range []string{
		"properties/manual-upload.jpg",
		"properties/abc/_leading.jpg",
		"properties/abc/notanumber_x.jpg",
		"",
	} {
		_, ok := KeyTimestamp(key)
		assert.False(t, ok, "key %q should not parse", key)
	}
}

func TestKeyFromURL(t *testing.T) {
	propertyID := uuid.New()
	key := ObjectKey(propertyID, "a.jpg")

	got, err := KeyFromURL("https://propmatch-media.object.pscloud.io/" + key)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestKeyFromURLRejectsEmptyPath(t *testing.T) {
	_, err := KeyFromURL("https://propmatch-media.object.pscloud.io")
	assert.Error(t, err)
}
