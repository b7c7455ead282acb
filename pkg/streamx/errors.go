package streamx

import (
	"net/http"

	"github.com/Abraxas-365/sitepilot/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("STREAM")

	ErrIdleTimeout = errorRegistry.Register(
		"IDLE_TIMEOUT",
		errx.TypeExternal,
		http.StatusGatewayTimeout,
		"Provider produced no chunks within the idle timeout",
	)

	ErrEventEncoding = errorRegistry.Register(
		"EVENT_ENCODING_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to encode stream event",
	)
)
