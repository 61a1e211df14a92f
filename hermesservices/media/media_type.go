package media

import (
	"fmt"
)

type MediaType string

const (
	Audio MediaType = "AUDIO"
	Video MediaType = "VIDEO"
)

var MediaTypes = []MediaType{Audio, Video}

func ParseMediaType(value string) (MediaType, error) {
	mediaType := MediaType(value)
	if err := mediaType.Validate(); err != nil {
		return "", err
	}

	return mediaType, nil
}

func (mediaType MediaType) Validate() error {
	switch mediaType {
	case Audio, Video:
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidMediaType, string(mediaType))
}

// Extension is part of the stored key layout; changing it orphans existing objects.
func (mediaType MediaType) Extension() (string, error) {
	switch mediaType {
	case Audio:
		return ".mp3", nil
	case Video:
		return ".mp4", nil
	}

	return "", mediaType.Validate()
}

func (mediaType MediaType) ContentType() (string, error) {
	switch mediaType {
	case Audio:
		return "audio/mpeg", nil
	case Video:
		return "video/mp4", nil
	}

	return "", mediaType.Validate()
}
