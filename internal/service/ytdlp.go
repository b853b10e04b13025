package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/go-resty/resty/v2"
)

// CaptionTrack is one downloadable caption rendition of a video.
type CaptionTrack struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

// MediaInfo is the slice of the yt-dlp metadata dump the pipeline
// cares about: descriptive fields plus the caption track listings,
// keyed by language, split into manually authored subtitles and
// auto-generated captions.
type MediaInfo struct {
	Title             string                    `json:"title"`
	Duration          int64                     `json:"duration"`
	Uploader          string                    `json:"uploader"`
	UploadDate        string                    `json:"upload_date"`
	ViewCount         int64                     `json:"view_count"`
	Subtitles         map[string][]CaptionTrack `json:"subtitles"`
	AutomaticCaptions map[string][]CaptionTrack `json:"automatic_captions"`
}

// YtDlpClient shells out to the yt-dlp binary for video metadata and
// caption listings, and fetches caption payloads over HTTP.
type YtDlpClient struct {
	binaryPath string
	http       *resty.Client
}

// YtDlpConfig holds configuration for the yt-dlp client.
type YtDlpConfig struct {
	BinaryPath string
}

// NewYtDlpClient creates a new yt-dlp client.
func NewYtDlpClient(cfg *YtDlpConfig) *YtDlpClient {
	binary := cfg.BinaryPath
	if binary == "" {
		binary = "yt-dlp" // assume it is on PATH
	}

	client := resty.New()
	client.SetTimeout(60 * time.Second)

	return &YtDlpClient{
		binaryPath: binary,
		http:       client,
	}
}

// Probe extracts metadata and caption listings without downloading any
// media. The five-minute ceiling covers slow extractor responses.
func (c *YtDlpClient) Probe(ctx context.Context, videoURL string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binaryPath,
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		videoURL,
	)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, stderr.String())
	}

	var info MediaInfo
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	return &info, nil
}

// FetchCaption downloads one caption track's payload.
func (c *YtDlpClient) FetchCaption(ctx context.Context, captionURL string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(captionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch caption: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("caption fetch returned HTTP %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// FetchAudio streams a direct audio URL. The caller must close the
// returned reader. Size is -1 when the server does not announce one.
func (c *YtDlpClient) FetchAudio(ctx context.Context, audioURL string) (io.ReadCloser, int64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(audioURL)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audio: %w", err)
	}

	raw := resp.RawResponse
	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		raw.Body.Close()
		return nil, 0, fmt.Errorf("audio fetch returned HTTP %d", raw.StatusCode)
	}

	return raw.Body, raw.ContentLength, nil
}
