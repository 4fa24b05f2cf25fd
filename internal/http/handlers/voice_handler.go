package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/growth-tools-backend/internal/http/middleware"
	"github.com/tbourn/growth-tools-backend/internal/quota"
	"github.com/tbourn/growth-tools-backend/internal/services"
)

// Response headers set by the voice endpoints.
const (
	HeaderTokensCharged = "X-Tokens-Charged"
	HeaderReplay        = "X-Idempotent-Replay"
)

// SpeakRequest is the body for POST /{profile}/speak.
type SpeakRequest struct {
	Text string `json:"text" form:"text" example:"Welcome to the growth tools demo."`
}

// TranscribeJSONRequest is the JSON alternative to a multipart upload.
type TranscribeJSONRequest struct {
	// Base64-encoded audio (standard alphabet, optional data: URL prefix)
	Audio    string  `json:"audio"`
	Filename string  `json:"filename" example:"recording.webm"`
	Duration float64 `json:"duration" example:"12.5"`
}

// TranscribeResponse is the JSON body returned by POST /{profile}/transcribe.
type TranscribeResponse struct {
	Text     string  `json:"text" example:"hello world"`
	Language string  `json:"language,omitempty" example:"en"`
	Duration float64 `json:"duration,omitempty" example:"12.5"`
	Tokens   int64   `json:"tokens" example:"8334"`
}

var errAudioTooLarge = errors.New("audio too large")

func voiceError(c *gin.Context, err error) {
	var qe *quota.QuotaExceededError
	switch {
	case errors.As(err, &qe):
		failQuota(c, qe)
	case errors.Is(err, services.ErrMissingText),
		errors.Is(err, services.ErrTextTooLong),
		errors.Is(err, services.ErrMissingAudio):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, errAudioTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "audio too large")
	case errors.Is(err, services.ErrProviderNotConfigured):
		fail(c, http.StatusInternalServerError, ErrCodeNotConfigured, "voice provider is not configured")
	case errors.Is(err, middleware.ErrIdempotencyMismatch):
		fail(c, http.StatusUnprocessableEntity, ErrCodeIdempotencyMismatch, err.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("voice_request_failed")
		fail(c, http.StatusInternalServerError, ErrCodeProviderFailed, "voice provider request failed")
	}
}

// Speak godoc
// @ID           speak
// @Summary      Synthesize speech
// @Description  Charges the text length against the token quota and streams the provider audio unchanged.
// @Tags         voice
// @Accept       json,mpfd,x-www-form-urlencoded
// @Produce      audio/mpeg
// @Param        X-User-ID        header  string        false  "Caller id (demo identity)"
// @Param        Idempotency-Key  header  string        false  "Replays of the same text are not charged again"
// @Param        body             body    SpeakRequest  true   "Text to speak"
// @Success      200  {file}    binary
// @Failure      400  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Failure      429  {object}  QuotaErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /growth-tools/speak [post]
// @Router       /needs-assessment/speak [post]
func (h *Handlers) Speak(profile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SpeakRequest
		if err := c.ShouldBind(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
			return
		}

		replay, err := middleware.ClaimReplay(c, middleware.Fingerprint([]byte(profile), []byte(strings.TrimSpace(req.Text))))
		if err != nil {
			voiceError(c, err)
			return
		}
		res, err := h.voice.Speak(c.Request.Context(), services.SpeakInput{
			UserID:  userID(c),
			Text:    req.Text,
			Profile: profile,
			Replay:  replay,
		})
		if err != nil {
			voiceError(c, err)
			return
		}
		defer res.Audio.Body.Close()

		middleware.SetChargedTokens(c, res.Tokens)
		headers := map[string]string{HeaderTokensCharged: strconv.FormatInt(res.Tokens, 10)}
		if replay {
			headers[HeaderReplay] = "true"
		}
		c.DataFromReader(http.StatusOK, -1, res.Audio.ContentType, res.Audio.Body, headers)
	}
}

// Transcribe godoc
// @ID           transcribe
// @Summary      Transcribe audio
// @Description  Accepts a multipart "file" upload or a JSON body with base64 audio. Charges the recording duration after transcription.
// @Tags         voice
// @Accept       mpfd,json
// @Produce      json
// @Param        X-User-ID        header    string                 false  "Caller id (demo identity)"
// @Param        Idempotency-Key  header    string                 false  "Replays of the same audio are not charged again"
// @Param        file             formData  file                   false  "Audio file"
// @Param        duration         formData  number                 false  "Client duration estimate in seconds"
// @Param        body             body      TranscribeJSONRequest  false  "JSON alternative"
// @Success      200  {object}  TranscribeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      413  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Failure      429  {object}  QuotaErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /growth-tools/transcribe [post]
// @Router       /needs-assessment/transcribe [post]
func (h *Handlers) Transcribe(profile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := h.readAudio(c)
		if err != nil {
			voiceError(c, err)
			return
		}
		in.UserID = userID(c)
		in.Profile = profile
		in.Replay, err = middleware.ClaimReplay(c, middleware.Fingerprint([]byte(profile), in.Audio))
		if err != nil {
			voiceError(c, err)
			return
		}

		res, err := h.voice.Transcribe(c.Request.Context(), in)
		if err != nil {
			voiceError(c, err)
			return
		}

		middleware.SetChargedTokens(c, res.Tokens)
		c.Header(HeaderTokensCharged, strconv.FormatInt(res.Tokens, 10))
		if in.Replay {
			c.Header(HeaderReplay, "true")
		}
		ok(c, http.StatusOK, TranscribeResponse{
			Text:     res.Text,
			Language: res.Language,
			Duration: res.DurationSeconds,
			Tokens:   res.Tokens,
		})
	}
}

// readAudio extracts the upload from a multipart form or a JSON body.
func (h *Handlers) readAudio(c *gin.Context) (services.TranscribeInput, error) {
	var in services.TranscribeInput

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			fh, err = c.FormFile("audio")
		}
		if err != nil {
			if isTooLarge(err) {
				return in, errAudioTooLarge
			}
			return in, services.ErrMissingAudio
		}
		if fh.Size > h.maxAudioBytes {
			return in, errAudioTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return in, err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, h.maxAudioBytes+1))
		if err != nil {
			return in, err
		}
		if int64(len(data)) > h.maxAudioBytes {
			return in, errAudioTooLarge
		}
		in.Audio = data
		in.Filename = fh.Filename
		in.DurationHint, _ = strconv.ParseFloat(c.PostForm("duration"), 64)
		return in, nil
	}

	var req TranscribeJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			return in, errAudioTooLarge
		}
		return in, services.ErrMissingAudio
	}
	raw := req.Audio
	if i := strings.Index(raw, ";base64,"); i >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return in, services.ErrMissingAudio
	}
	if int64(len(data)) > h.maxAudioBytes {
		return in, errAudioTooLarge
	}
	in.Audio = data
	in.Filename = req.Filename
	in.DurationHint = req.Duration
	return in, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
