package domain

import "testing"

func TestResolvePlatform(t *testing.T) {
	testCases := []struct {
		name string
		url  string
		want Platform
	}{
		{name: "youtube watch", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: PlatformYouTube},
		{name: "youtube short link", url: "https://youtu.be/dQw4w9WgXcQ", want: PlatformYouTube},
		{name: "youtube mobile", url: "https://m.youtube.com/watch?v=abc", want: PlatformYouTube},
		{name: "bare youtube host", url: "http://youtube.com/watch?v=abc", want: PlatformYouTube},
		{name: "mp3 file", url: "https://cdn.example.com/episodes/42.mp3", want: PlatformDirectAudio},
		{name: "wav file uppercase ext", url: "https://example.com/a.WAV", want: PlatformDirectAudio},
		{name: "vimeo", url: "https://vimeo.com/12345", want: PlatformUnsupported},
		{name: "random page", url: "https://example.com/watch?v=abc", want: PlatformUnsupported},
		{name: "not a url", url: "::::", want: PlatformUnsupported},
		{name: "non-http scheme", url: "ftp://youtube.com/x", want: PlatformUnsupported},
		{name: "empty", url: "", want: PlatformUnsupported},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolvePlatform(tc.url); got != tc.want {
				t.Errorf("ResolvePlatform(%q) = %s, want %s", tc.url, got, tc.want)
			}
		})
	}
}
