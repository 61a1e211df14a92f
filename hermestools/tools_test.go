package hermestools_test

import "time"

type mediaFile struct {
	Key      string
	Uploaded time.Time
}

var (
	fileStale = mediaFile{
		Key:      "AUDIO/stale.mp3",
		Uploaded: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	fileFresh = mediaFile{
		Key:      "VIDEO/fresh.mp4",
		Uploaded: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	mediaFiles = []mediaFile{fileStale, fileFresh}
	cutoff     = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
)
