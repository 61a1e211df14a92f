package media

import "fmt"

type ObjectKey struct {
	MediaType MediaType
	Key       string
}

// Path is the physical key inside the store: "{mediaType}/{key}{extension}".
// Every operation derives keys here so reads find what writes produced.
func (objectKey ObjectKey) Path() (string, error) {
	extension, err := objectKey.MediaType.Extension()
	if err != nil {
		return "", err
	}

	if objectKey.Key == "" {
		return "", fmt.Errorf("%w: key can not be blank", ErrInvalidKey)
	}

	return fmt.Sprintf("%s/%s%s", objectKey.MediaType, objectKey.Key, extension), nil
}
