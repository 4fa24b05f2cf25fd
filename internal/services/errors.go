// Package services defines the business logic for chat history, votes and the
// quota-gated voice endpoints. This file centralizes service-level error
// values so they can be returned consistently and mapped to HTTP results by
// the handler layer.
package services

import "errors"

// Chat-related errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist or is not
	// accessible to the current user.
	ErrChatNotFound = errors.New("chat not found")

	// ErrEmptyMessage is returned when a message to append has no content.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a message exceeds the configured limit.
	ErrTooLong = errors.New("message too long")

	// ErrInvalidRole is returned for roles other than user and assistant.
	ErrInvalidRole = errors.New("role must be user or assistant")
)

// Vote-related errors.
var (
	ErrMissingChatID    = errors.New("chatId is required")
	ErrMissingMessageID = errors.New("messageId is required")
	ErrInvalidVote      = errors.New("type must be up or down")
)

// Voice-related errors.
var (
	// ErrMissingText is returned when a speech request carries no text.
	ErrMissingText = errors.New("text is required")

	// ErrTextTooLong is returned when the text exceeds MaxSpeechChars.
	ErrTextTooLong = errors.New("text too long")

	// ErrMissingAudio is returned when a transcription request has no audio.
	ErrMissingAudio = errors.New("audio is required")

	// ErrProviderNotConfigured is returned when the speech or transcription
	// provider is missing (e.g. no API key). It maps to a 500, not a 400.
	ErrProviderNotConfigured = errors.New("voice provider is not configured")
)
