package speech

import (
	"context"
	"io"
)

// AudioFormat identifies the container of synthesized audio
type AudioFormat string

const (
	AudioFormatMP3 AudioFormat = "mp3"
	AudioFormatWAV AudioFormat = "wav"
	AudioFormatPCM AudioFormat = "pcm"
	AudioFormatOGG AudioFormat = "ogg"
)

// Audio is a synthesized speech payload. The caller owns Content and must
// close it.
type Audio struct {
	Content io.ReadCloser
	Format  AudioFormat
}

// Transcript is the text recognized from an audio input
type Transcript struct {
	Text string
}

// SynthesisOptions configures text-to-speech requests
type SynthesisOptions struct {
	Model       string
	Voice       string
	AudioFormat AudioFormat
	SpeechRate  float32
}

// SynthesisOption modifies synthesis options
type SynthesisOption func(*SynthesisOptions)

// WithSynthesisModel sets the TTS model
func WithSynthesisModel(model string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.Model = model
	}
}

// WithVoice sets the voice to synthesize with
func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.Voice = voice
	}
}

// WithAudioFormat sets the output audio format
func WithAudioFormat(format AudioFormat) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.AudioFormat = format
	}
}

// WithSpeechRate sets the playback speed multiplier
func WithSpeechRate(rate float32) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.SpeechRate = rate
	}
}

// TranscriptionOptions configures speech-to-text requests
type TranscriptionOptions struct {
	Model    string
	Language string
}

// TranscriptionOption modifies transcription options
type TranscriptionOption func(*TranscriptionOptions)

// WithTranscriptionModel sets the transcription model
func WithTranscriptionModel(model string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Model = model
	}
}

// WithLanguage hints the spoken language as an ISO-639-1 code
func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

// Synthesizer turns text into audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...SynthesisOption) (Audio, error)
}

// Transcriber turns audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, opts ...TranscriptionOption) (Transcript, error)
}
