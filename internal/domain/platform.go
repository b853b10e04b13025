package domain

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

// Platform identifies the hosting family a submitted URL belongs to,
// which decides the download strategy for the job.
type Platform string

const (
	// PlatformYouTube carries its own caption tracks; the download stage
	// extracts a transcript directly and skips the transcribe stage.
	PlatformYouTube Platform = "youtube"

	// PlatformDirectAudio is a plain audio file URL; the raw audio is
	// downloaded and handed to the speech-to-text stage.
	PlatformDirectAudio Platform = "direct_audio"

	// PlatformUnsupported is every URL we do not know how to process.
	PlatformUnsupported Platform = "unsupported"
)

// ErrUnsupportedPlatform marks a job that can never succeed, regardless
// of how many times it is retried.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
}

// ResolvePlatform maps a URL to its platform. Pure function of the URL;
// unknown hosts resolve to PlatformUnsupported rather than an error so
// callers decide how to surface it.
func ResolvePlatform(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return PlatformUnsupported
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch {
	case host == "youtube.com" || host == "youtu.be" ||
		host == "m.youtube.com" || host == "music.youtube.com":
		return PlatformYouTube
	case audioExtensions[strings.ToLower(path.Ext(u.Path))]:
		return PlatformDirectAudio
	default:
		return PlatformUnsupported
	}
}
