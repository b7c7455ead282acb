package history

import (
	"net/http"

	"github.com/Abraxas-365/sitepilot/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("HISTORY")

	ErrEmptySessionID = errorRegistry.Register(
		"EMPTY_SESSION_ID",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Session ID cannot be empty",
	)

	ErrStoreFailed = errorRegistry.Register(
		"STORE_FAILED",
		errx.TypeExternal,
		http.StatusInternalServerError,
		"History store operation failed",
	)
)
