package toolx

import (
	"net/http"

	"github.com/Abraxas-365/sitepilot/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("TOOLX")

	ErrEmptyToolName = errorRegistry.Register(
		"EMPTY_TOOL_NAME",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Tool name cannot be empty",
	)

	ErrNilHandler = errorRegistry.Register(
		"NIL_HANDLER",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Tool handler cannot be nil",
	)

	ErrDuplicateTool = errorRegistry.Register(
		"DUPLICATE_TOOL",
		errx.TypeValidation,
		http.StatusConflict,
		"A tool with this name is already registered",
	)

	ErrUnknownTool = errorRegistry.Register(
		"UNKNOWN_TOOL",
		errx.TypeNotFound,
		http.StatusNotFound,
		"No tool registered with this name",
	)

	ErrHandlerPanic = errorRegistry.Register(
		"HANDLER_PANIC",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Tool handler panicked",
	)
)
