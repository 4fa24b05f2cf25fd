// Package provider wraps the hosted speech-synthesis and transcription APIs
// behind two small interfaces so the voice services can be tested with stubs.
package provider

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured is returned when a provider is built without credentials.
var ErrNotConfigured = errors.New("voice provider is not configured")

// SpeechRequest asks for Text to be rendered as audio.
type SpeechRequest struct {
	Text   string
	Voice  string // provider voice name; empty uses the provider default
	Format string // mp3|opus|aac|flac|wav|pcm; empty means mp3
}

// Audio is a synthesized audio stream. Callers must close Body.
type Audio struct {
	Body        io.ReadCloser
	ContentType string
}

// TranscriptionRequest carries an uploaded recording.
type TranscriptionRequest struct {
	Filename string // used by the provider to sniff the container format
	Audio    io.Reader
	Language string // ISO-639-1 hint, optional
	Prompt   string // optional style/vocabulary prompt
}

// Transcript is the provider's answer. DurationSeconds is zero when the
// provider did not report it.
type Transcript struct {
	Text            string  `json:"text"`
	Language        string  `json:"language,omitempty"`
	DurationSeconds float64 `json:"duration,omitempty"`
}

// Speaker synthesizes speech.
type Speaker interface {
	Speak(ctx context.Context, req SpeechRequest) (*Audio, error)
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (*Transcript, error)
}
