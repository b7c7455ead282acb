package chat

import (
	"bufio"
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/valyala/fasthttp"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/sitepilot/pkg/ai/speech"
	"github.com/Abraxas-365/sitepilot/pkg/history"
	"github.com/Abraxas-365/sitepilot/pkg/logx"
	"github.com/Abraxas-365/sitepilot/pkg/streamx"
)

// SessionHeader carries the caller-supplied archive key. Absent header
// means the turn is not archived; the chat flow itself is stateless either
// way.
const SessionHeader = "X-Session-ID"

// Service is the HTTP surface of the assistant: the streaming chat
// endpoint, optional turn archive routes, and optional speech routes.
type Service struct {
	client       llm.Client
	tools        *toolx.Registry
	store        history.Store
	systemPrompt string
	model        string
	idleTimeout  time.Duration
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithTools declares the page tools forwarded to the provider
func WithTools(tools *toolx.Registry) ServiceOption {
	return func(s *Service) {
		s.tools = tools
	}
}

// WithHistoryStore enables turn archiving
func WithHistoryStore(store history.Store) ServiceOption {
	return func(s *Service) {
		s.store = store
	}
}

// WithSystemPrompt sets the instruction prefix injected into every turn
func WithSystemPrompt(prompt string) ServiceOption {
	return func(s *Service) {
		s.systemPrompt = prompt
	}
}

// WithModel overrides the provider's default model
func WithModel(model string) ServiceOption {
	return func(s *Service) {
		s.model = model
	}
}

// WithIdleTimeout bounds provider silence per turn
func WithIdleTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// NewService creates the chat service over one provider client
func NewService(client llm.Client, opts ...ServiceOption) *Service {
	s := &Service{
		client:      client,
		tools:       toolx.NewRegistry(),
		idleTimeout: streamx.DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes mounts the chat routes on router
func (s *Service) RegisterRoutes(router fiber.Router) {
	router.Post("/chat", s.handleChat)
	router.Get("/chat/history/:sessionID", s.handleHistory)
	router.Delete("/chat/history/:sessionID", s.handleClearHistory)
	router.Post("/speech/synthesize", s.handleSynthesize)
	router.Post("/speech/transcribe", s.handleTranscribe)
}

// handleChat opens the provider stream, then streams normalized events to
// the client over SSE. Failures before the stream opens (bad body, bad
// roles, missing key) return structured JSON errors; failures after are
// encoded as in-band error events.
func (s *Service) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorRegistry.NewWithCause(ErrInvalidRequest, err)
	}

	messages, err := req.Resolve(s.systemPrompt)
	if err != nil {
		return err
	}

	opts := []llm.Option{}
	if s.model != "" {
		opts = append(opts, llm.WithModel(s.model))
	}
	tools := s.tools.Tools()
	if len(req.Tools) > 0 {
		tools = toolx.ToTools(req.Tools)
	}
	if len(tools) > 0 {
		opts = append(opts, llm.WithTools(tools), llm.WithToolChoice("auto"))
	}

	stream, err := s.client.ChatStream(c.UserContext(), messages, opts...)
	if err != nil {
		return err
	}

	sessionID := c.Get(SessionHeader)
	userContent := LastUserContent(messages)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.Context()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		s.streamTurn(ctx, stream, w, sessionID, userContent)
	}))

	return nil
}

// streamTurn runs the decoder against the SSE writer and records the
// completed turn for archiving.
func (s *Service) streamTurn(ctx context.Context, stream llm.Stream, w streamx.Flusher, sessionID, userContent string) {
	writer := streamx.NewSSEWriter(w)
	decoder := streamx.NewDecoder(stream, streamx.WithIdleTimeout(s.idleTimeout))

	var text strings.Builder
	var toolNames []string

	err := decoder.Run(ctx, func(ev streamx.Event) error {
		switch ev.Type {
		case streamx.EventText:
			text.WriteString(ev.Content)
		case streamx.EventTool:
			toolNames = append(toolNames, ev.Name)
		}
		return writer.WriteEvent(ev)
	})
	if err != nil {
		logx.WithError(err).Warn("chat turn ended abnormally")
		return
	}

	if s.store != nil && sessionID != "" {
		s.archiveTurn(sessionID, userContent, text.String(), toolNames)
	}
}

func (s *Service) archiveTurn(sessionID, userContent, assistantContent string, toolNames []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	entries := []history.Entry{
		{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Role:      llm.RoleUser,
			Content:   userContent,
			CreatedAt: now,
		},
		{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Role:      llm.RoleAssistant,
			Content:   assistantContent,
			Tools:     pq.StringArray(toolNames),
			CreatedAt: now,
		},
	}

	if err := s.store.Append(ctx, sessionID, entries...); err != nil {
		logx.WithField("session_id", sessionID).
			WithError(err).
			Warn("failed to archive turn")
	}
}

func (s *Service) handleHistory(c *fiber.Ctx) error {
	if s.store == nil {
		return errorRegistry.New(ErrHistoryDisabled)
	}

	sessionID := c.Params("sessionID")
	limit := c.QueryInt("limit", 0)

	entries, err := s.store.List(c.UserContext(), sessionID, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"entries":    entries,
	})
}

func (s *Service) handleClearHistory(c *fiber.Ctx) error {
	if s.store == nil {
		return errorRegistry.New(ErrHistoryDisabled)
	}

	if err := s.store.Clear(c.UserContext(), c.Params("sessionID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format,omitempty"`
}

// handleSynthesize streams TTS audio when the provider supports it.
// Speech is opportunistic: a provider without the capability yields a
// structured not-found, never a crash.
func (s *Service) handleSynthesize(c *fiber.Ctx) error {
	synthesizer, ok := s.client.(speech.Synthesizer)
	if !ok {
		return errorRegistry.New(ErrSpeechUnavailable)
	}

	var req synthesizeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorRegistry.NewWithCause(ErrInvalidRequest, err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorRegistry.New(ErrEmptyText)
	}

	var opts []speech.SynthesisOption
	if req.Voice != "" {
		opts = append(opts, speech.WithVoice(req.Voice))
	}
	format := speech.AudioFormatMP3
	if req.Format != "" {
		format = speech.AudioFormat(strings.ToLower(req.Format))
		opts = append(opts, speech.WithAudioFormat(format))
	}

	audio, err := synthesizer.Synthesize(c.UserContext(), req.Text, opts...)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, audioContentType(format))
	return c.SendStream(audio.Content)
}

func (s *Service) handleTranscribe(c *fiber.Ctx) error {
	transcriber, ok := s.client.(speech.Transcriber)
	if !ok {
		return errorRegistry.New(ErrSpeechUnavailable)
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return errorRegistry.NewWithCause(ErrMissingAudio, err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorRegistry.NewWithCause(ErrMissingAudio, err)
	}
	defer file.Close()

	var opts []speech.TranscriptionOption
	if language := c.Query("language"); language != "" {
		opts = append(opts, speech.WithLanguage(language))
	}

	transcript, err := transcriber.Transcribe(c.UserContext(), file, opts...)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"text": transcript.Text})
}

func audioContentType(format speech.AudioFormat) string {
	switch format {
	case speech.AudioFormatWAV:
		return "audio/wav"
	case speech.AudioFormatOGG:
		return "audio/ogg"
	case speech.AudioFormatPCM:
		return "application/octet-stream"
	default:
		return "audio/mpeg"
	}
}
