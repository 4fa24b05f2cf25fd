// Package services – VoiceService
//
// VoiceService fronts the hosted speech-synthesis and transcription APIs
// with the global token quota. The order of steps is fixed:
//
//	speak:      validate → provider configured → check quota → record → synthesize
//	transcribe: validate → provider configured → check quota → transcribe → record
//
// Speech is charged before synthesis from the text length. Transcription is
// charged afterwards from the duration the provider reports, or from the
// client's hint when it reports none. Usage is not rolled back when
// the provider fails after a charge.
//
// Replayed requests (same Idempotency-Key and same content) are still checked
// against the quota but are not charged again.
package services

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/provider"
	"github.com/tbourn/growth-tools-backend/internal/quota"
)

// Voice profiles served under their own route prefixes.
const (
	ProfileGrowthTools     = "growth-tools"
	ProfileNeedsAssessment = "needs-assessment"
)

// VoiceProfile tunes the provider calls for one demo surface.
type VoiceProfile struct {
	Voice    string // speech voice
	Language string // transcription language hint
	Prompt   string // transcription prompt
}

// QuotaGate is the subset of quota.Gate used by VoiceService.
type QuotaGate interface {
	CheckTokenLimit(ctx context.Context) (quota.Result, error)
	RecordUsage(ctx context.Context, ch quota.Charge) error
}

// VoiceService coordinates quota accounting and provider calls.
type VoiceService struct {
	Gate        QuotaGate
	Speaker     provider.Speaker     // nil when not configured
	Transcriber provider.Transcriber // nil when not configured
	Rates       quota.Rates

	// MaxSpeechChars rejects longer speech input; 0 disables the check.
	MaxSpeechChars int

	Profiles map[string]VoiceProfile
}

// SpeakInput is a speech-synthesis request.
type SpeakInput struct {
	UserID  string
	Text    string
	Profile string
	Replay  bool
}

// SpeakResult carries the provider audio and the tokens charged for it.
type SpeakResult struct {
	Audio  *provider.Audio
	Tokens int64
}

// TranscribeInput is a transcription request. DurationHint is the client's
// estimate of the recording length in seconds.
type TranscribeInput struct {
	UserID       string
	Filename     string
	Audio        []byte
	DurationHint float64
	Profile      string
	Replay       bool
}

// TranscribeResult is the transcript and the tokens charged for it.
type TranscribeResult struct {
	provider.Transcript
	Tokens int64 `json:"tokens"`
}

func (s *VoiceService) tracer() trace.Tracer { return otel.Tracer("services/VoiceService") }

func (s *VoiceService) profile(name string) VoiceProfile {
	if p, ok := s.Profiles[name]; ok {
		return p
	}
	return s.Profiles[ProfileGrowthTools]
}

// Speak synthesizes in.Text after charging its token cost.
func (s *VoiceService) Speak(ctx context.Context, in SpeakInput) (*SpeakResult, error) {
	ctx, span := s.tracer().Start(ctx, "Speak",
		trace.WithAttributes(
			attribute.String("voice.profile", in.Profile),
			attribute.Bool("voice.replay", in.Replay),
		),
	)
	defer span.End()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrMissingText
	}
	chars := utf8.RuneCountInString(text)
	if s.MaxSpeechChars > 0 && chars > s.MaxSpeechChars {
		return nil, ErrTextTooLong
	}
	if s.Speaker == nil {
		return nil, ErrProviderNotConfigured
	}

	if err := s.admit(ctx); err != nil {
		return nil, err
	}
	var tokens int64
	if !in.Replay {
		tokens = s.Rates.TextTokens(chars)
		err := s.Gate.RecordUsage(ctx, quota.Charge{
			Kind:   domain.ChargeSpeech,
			UserID: in.UserID,
			Units:  float64(chars),
			Tokens: tokens,
			Meta:   map[string]any{"profile": in.Profile},
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int64("quota.tokens", tokens))

	p := s.profile(in.Profile)
	audio, err := s.Speaker.Speak(ctx, provider.SpeechRequest{Text: text, Voice: p.Voice})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "speech provider failed")
		return nil, err
	}
	return &SpeakResult{Audio: audio, Tokens: tokens}, nil
}

// Transcribe converts in.Audio to text and charges the recording duration.
func (s *VoiceService) Transcribe(ctx context.Context, in TranscribeInput) (*TranscribeResult, error) {
	ctx, span := s.tracer().Start(ctx, "Transcribe",
		trace.WithAttributes(
			attribute.String("voice.profile", in.Profile),
			attribute.Bool("voice.replay", in.Replay),
			attribute.Int("audio.bytes", len(in.Audio)),
		),
	)
	defer span.End()

	if len(in.Audio) == 0 {
		return nil, ErrMissingAudio
	}
	if s.Transcriber == nil {
		return nil, ErrProviderNotConfigured
	}
	if err := s.admit(ctx); err != nil {
		return nil, err
	}

	p := s.profile(in.Profile)
	tr, err := s.Transcriber.Transcribe(ctx, provider.TranscriptionRequest{
		Filename: in.Filename,
		Audio:    bytes.NewReader(in.Audio),
		Language: p.Language,
		Prompt:   p.Prompt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription provider failed")
		return nil, err
	}

	res := &TranscribeResult{Transcript: *tr}
	if in.Replay {
		return res, nil
	}

	secs := tr.DurationSeconds
	if secs <= 0 {
		secs = in.DurationHint
	}
	res.Tokens = s.Rates.AudioTokens(secs)
	if res.Tokens > 0 {
		err := s.Gate.RecordUsage(ctx, quota.Charge{
			Kind:   domain.ChargeTranscription,
			UserID: in.UserID,
			Units:  secs,
			Tokens: res.Tokens,
			Meta:   map[string]any{"profile": in.Profile},
		})
		if err != nil {
			// A failed usage write does not discard a finished transcript.
			span.RecordError(err)
			log.Ctx(ctx).Error().Err(err).Int64("tokens", res.Tokens).Msg("quota_record_failed")
		}
	}
	span.SetAttributes(attribute.Int64("quota.tokens", res.Tokens))
	return res, nil
}

// admit returns a *quota.QuotaExceededError when the budget is spent.
func (s *VoiceService) admit(ctx context.Context) error {
	res, err := s.Gate.CheckTokenLimit(ctx)
	if err != nil {
		return err
	}
	if !res.Success {
		return &quota.QuotaExceededError{Limit: res.Limit, Used: res.Used, ResetAt: res.ResetAt}
	}
	return nil
}
