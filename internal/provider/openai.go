package provider

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures the OpenAI-backed provider.
type OpenAIOptions struct {
	APIKey             string
	BaseURL            string // optional, e.g. a proxy or a test server
	SpeechModel        string // default tts-1
	TranscriptionModel string // default whisper-1
	DefaultVoice       string // default alloy
}

// OpenAI implements Speaker and Transcriber on top of go-openai.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI returns ErrNotConfigured when no API key is given.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.SpeechModel == "" {
		opts.SpeechModel = string(openai.TTSModel1)
	}
	if opts.TranscriptionModel == "" {
		opts.TranscriptionModel = openai.Whisper1
	}
	if opts.DefaultVoice == "" {
		opts.DefaultVoice = string(openai.VoiceAlloy)
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), opts: opts}, nil
}

var speechContentTypes = map[openai.SpeechResponseFormat]string{
	openai.SpeechResponseFormatMp3:  "audio/mpeg",
	openai.SpeechResponseFormatOpus: "audio/ogg",
	openai.SpeechResponseFormatAac:  "audio/aac",
	openai.SpeechResponseFormatFlac: "audio/flac",
	openai.SpeechResponseFormatWav:  "audio/wav",
	openai.SpeechResponseFormatPcm:  "audio/pcm",
}

// Speak streams the synthesized audio back unchanged.
func (o *OpenAI) Speak(ctx context.Context, req SpeechRequest) (*Audio, error) {
	voice := req.Voice
	if voice == "" {
		voice = o.opts.DefaultVoice
	}
	format := openai.SpeechResponseFormat(strings.ToLower(req.Format))
	if format == "" {
		format = openai.SpeechResponseFormatMp3
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.opts.SpeechModel),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: format,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}

	ct := resp.Header().Get("Content-Type")
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		if known, ok := speechContentTypes[format]; ok {
			ct = known
		}
	}
	return &Audio{Body: resp.ReadCloser, ContentType: ct}, nil
}

// Transcribe uses the verbose JSON format so the provider reports duration.
func (o *OpenAI) Transcribe(ctx context.Context, req TranscriptionRequest) (*Transcript, error) {
	name := req.Filename
	if name == "" {
		name = "audio.webm"
	}
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.opts.TranscriptionModel,
		FilePath: name,
		Reader:   req.Audio,
		Language: req.Language,
		Prompt:   req.Prompt,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}
	return &Transcript{
		Text:            resp.Text,
		Language:        resp.Language,
		DurationSeconds: resp.Duration,
	}, nil
}
