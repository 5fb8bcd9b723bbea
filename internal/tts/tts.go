package tts

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/time/rate"
)

// DefaultVoice is used when the client does not pick one.
const DefaultVoice = "alloy"

// audioFilePattern is the only filename shape the audio handler serves.
// It doubles as a path-traversal guard.
var audioFilePattern = regexp.MustCompile(`^tts_[a-f0-9]{32}\.mp3$`)

// Result describes one synthesis call.
type Result struct {
	FileName string
	Cached   bool
	Size     int64
}

// Synthesizer generates speech audio via the OpenAI audio API, caching
// results on disk keyed by content hash so repeated texts cost nothing.
type Synthesizer struct {
	model    string
	format   string
	apiKey   string
	baseURL  string
	audioDir string
	maxText  int
	client   *http.Client
	limiter  *rate.Limiter
}

// New creates a Synthesizer writing audio files under audioDir.
func New(model, format, apiKeyEnv, audioDir string, maxText, perMinute int) (*Synthesizer, error) {
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio directory: %w", err)
	}
	if model == "" {
		model = "tts-1"
	}
	if format == "" {
		format = "mp3"
	}
	if maxText <= 0 {
		maxText = 4000
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	var limiter *rate.Limiter
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}

	return &Synthesizer{
		model:    model,
		format:   format,
		apiKey:   os.Getenv(apiKeyEnv),
		baseURL:  baseURL,
		audioDir: audioDir,
		maxText:  maxText,
		client:   &http.Client{Timeout: 120 * time.Second},
		limiter:  limiter,
	}, nil
}

// IsConfigured checks if the API key is set.
func (s *Synthesizer) IsConfigured() bool { return s.apiKey != "" }

// CacheKey returns the audio filename for a text and voice combination.
func CacheKey(text, voice string) string {
	sum := md5.Sum([]byte(text + voice))
	return "tts_" + hex.EncodeToString(sum[:]) + ".mp3"
}

// Synthesize returns audio for text in the given voice and playback
// speed, generating it only when no cached file exists. speed <= 0
// selects normal speed. The cache key deliberately ignores speed; a
// level change reuses the same recording rather than billing a second
// generation for identical text.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string, speed float64) (*Result, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if len(text) > s.maxText {
		return nil, fmt.Errorf("text exceeds %d characters", s.maxText)
	}
	if voice == "" {
		voice = DefaultVoice
	}
	if speed <= 0 {
		speed = 1.0
	}

	fileName := CacheKey(text, voice)
	path := filepath.Join(s.audioDir, fileName)

	if info, err := os.Stat(path); err == nil {
		log.Printf("tts: cache hit for %s", fileName)
		return &Result{FileName: fileName, Cached: true, Size: info.Size()}, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	audio, err := s.generate(ctx, text, voice, speed)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return nil, fmt.Errorf("writing audio file: %w", err)
	}

	log.Printf("tts: generated %s (%d bytes, voice %s)", fileName, len(audio), voice)
	return &Result{FileName: fileName, Size: int64(len(audio))}, nil
}

// AudioPath resolves a client-supplied filename to a servable path,
// rejecting anything outside the strict cache naming scheme.
func (s *Synthesizer) AudioPath(fileName string) (string, error) {
	if !audioFilePattern.MatchString(fileName) {
		return "", fmt.Errorf("invalid audio file name: %q", fileName)
	}
	path := filepath.Join(s.audioDir, fileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("audio file not found: %s", fileName)
	}
	return path, nil
}

func (s *Synthesizer) generate(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("TTS API key not configured")
	}

	body := map[string]any{
		"model":           s.model,
		"input":           text,
		"voice":           voice,
		"response_format": s.format,
		"speed":           speed,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/audio/speech", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS API returned %d: %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio response: %w", err)
	}
	return audio, nil
}
