package sessionx

import (
	"net/http"

	"github.com/Abraxas-365/sitepilot/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("SESSION")

	ErrEmptyInput = errorRegistry.Register(
		"EMPTY_INPUT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"User input cannot be empty",
	)

	ErrTransportOpen = errorRegistry.Register(
		"TRANSPORT_OPEN_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to open the chat stream",
	)

	ErrBadStatus = errorRegistry.Register(
		"BAD_STATUS",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Chat endpoint returned a non-success status",
	)
)
