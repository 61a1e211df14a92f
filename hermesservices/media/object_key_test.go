package media_test

import (
	"testing"

	"github.com/lunagic/hermes/hermesservices/media"
	"gotest.tools/v3/assert"
)

func TestObjectKeyPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		mediaType media.MediaType
		key       string
		expected  string
		err       error
	}{
		{mediaType: media.Audio, key: "episode-1", expected: "AUDIO/episode-1.mp3"},
		{mediaType: media.Video, key: "episode-1", expected: "VIDEO/episode-1.mp4"},
		{mediaType: media.Video, key: "nested/path/clip", expected: "VIDEO/nested/path/clip.mp4"},
		{mediaType: media.MediaType("IMAGE"), key: "x", err: media.ErrInvalidMediaType},
		{mediaType: media.MediaType("audio"), key: "x", err: media.ErrInvalidMediaType},
		{mediaType: media.Audio, key: "", err: media.ErrInvalidKey},
	}

	for _, testCase := range testCases {
		actual, err := media.ObjectKey{MediaType: testCase.mediaType, Key: testCase.key}.Path()
		if testCase.err != nil {
			assert.ErrorIs(t, err, testCase.err)
			continue
		}

		assert.NilError(t, err)
		assert.Equal(t, actual, testCase.expected)
	}
}

func TestParseMediaType(t *testing.T) {
	t.Parallel()

	mediaType, err := media.ParseMediaType("VIDEO")
	assert.NilError(t, err)
	assert.Equal(t, mediaType, media.Video)

	contentType, err := mediaType.ContentType()
	assert.NilError(t, err)
	assert.Equal(t, contentType, "video/mp4")

	_, err = media.ParseMediaType("PODCAST")
	assert.ErrorIs(t, err, media.ErrInvalidMediaType)

	_, err = media.MediaType("PODCAST").ContentType()
	assert.ErrorIs(t, err, media.ErrInvalidMediaType)
}
