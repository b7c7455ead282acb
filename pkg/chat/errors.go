package chat

import (
	"net/http"

	"github.com/Abraxas-365/sitepilot/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("CHAT")

	ErrInvalidRequest = errorRegistry.Register(
		"INVALID_REQUEST",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Request body could not be parsed",
	)

	ErrEmptyRequest = errorRegistry.Register(
		"EMPTY_REQUEST",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Request must carry a prompt, messages, or provider_messages",
	)

	ErrAmbiguousRequest = errorRegistry.Register(
		"AMBIGUOUS_REQUEST",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Request must carry exactly one of prompt, messages, or provider_messages",
	)

	ErrUnsupportedRole = errorRegistry.Register(
		"UNSUPPORTED_ROLE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message roles must be user or assistant",
	)

	ErrHistoryDisabled = errorRegistry.Register(
		"HISTORY_DISABLED",
		errx.TypeNotFound,
		http.StatusNotFound,
		"No history backend is configured",
	)

	ErrSpeechUnavailable = errorRegistry.Register(
		"SPEECH_UNAVAILABLE",
		errx.TypeNotFound,
		http.StatusNotFound,
		"The configured provider has no speech capability",
	)

	ErrEmptyText = errorRegistry.Register(
		"EMPTY_TEXT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Text cannot be empty",
	)

	ErrMissingAudio = errorRegistry.Register(
		"MISSING_AUDIO",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Request must carry an audio file",
	)
)
