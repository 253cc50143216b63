package serv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"/song1.mp3":        "audio/mpeg",
		"/sub/SONG2.MP3":    "audio/mpeg",
		"/a.flac":           "audio/flac",
		"/a.ogg":            "audio/ogg",
		"/a.m4a":            "audio/mp4",
		"/a.wav":            "audio/wav",
		"/album/index.html": "text/html; charset=utf-8",
		"/README":           "",
	}

	for name, ct := range tests {
		assert.Equal(t, ct, contentType(name), name)
	}
}

func TestAddMimeTypes(t *testing.T) {
	err := addMimeTypes(map[string]string{
		"dsf":   "audio/x-dsf",
		".wv":   "audio/x-wavpack",
		" APE ": "audio/x-ape",
	})
	assert.NoError(t, err)

	assert.Equal(t, "audio/x-dsf", contentType("/a.dsf"))
	assert.Equal(t, "audio/x-wavpack", contentType("/a.wv"))
	assert.Equal(t, "audio/x-ape", contentType("/a.ape"))

	err = addMimeTypes(map[string]string{"": "audio/x-none"})
	assert.True(t, errors.Is(err, ErrStartup))

	err = addMimeTypes(map[string]string{"xyz": ""})
	assert.True(t, errors.Is(err, ErrStartup))
}
