package authx

import (
	"net/http"

	"github.com/Abraxas-365/sitepilot/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("AUTH")

	ErrMissingToken = errorRegistry.Register(
		"MISSING_TOKEN",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Missing or malformed bearer token",
	)

	ErrInvalidToken = errorRegistry.Register(
		"INVALID_TOKEN",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Token is invalid or expired",
	)

	ErrTokenGeneration = errorRegistry.Register(
		"TOKEN_GENERATION_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to generate token",
	)
)
