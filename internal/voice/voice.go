// Package voice wraps an OpenAI-compatible audio API for speech capture
// (transcription) and question playback (TTS).
package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Engine provides both capture and playback over one API client.
type Engine struct {
	api      *openai.Client
	sttModel string
	ttsVoice openai.SpeechVoice

	mu     sync.Mutex
	buf    *bytes.Buffer // audio collected for the capture in progress
	spoken []byte        // last synthesized question, served to the browser
}

// New creates a voice engine against an OpenAI-compatible endpoint.
func New(baseURL, apiKey, sttModel string) *Engine {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if sttModel == "" {
		sttModel = openai.Whisper1
	}
	return &Engine{
		api:      openai.NewClientWithConfig(config),
		sttModel: sttModel,
		ttsVoice: openai.VoiceAlloy,
	}
}

// Start opens a capture buffer. Audio chunks arrive via Write from the
// browser's recorder upload.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf != nil {
		return fmt.Errorf("voice: capture already in progress")
	}
	e.buf = &bytes.Buffer{}
	return nil
}

// Write appends recorded audio to the capture in progress. Writes
// outside a capture are dropped.
func (e *Engine) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf == nil {
		return len(p), nil
	}
	return e.buf.Write(p)
}

// Stop ends the capture and transcribes whatever was recorded. An empty
// capture transcribes to an empty string without calling the API.
func (e *Engine) Stop(ctx context.Context) (string, error) {
	e.mu.Lock()
	buf := e.buf
	e.buf = nil
	e.mu.Unlock()

	if buf == nil || buf.Len() == 0 {
		return "", nil
	}

	resp, err := e.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    e.sttModel,
		FilePath: "capture.webm",
		Reader:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe capture: %w", err)
	}
	return resp.Text, nil
}

// Speak synthesizes the question and keeps the audio for the browser to
// fetch from the speech endpoint.
func (e *Engine) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	audio, err := e.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: e.ttsVoice,
	})
	if err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}
	defer audio.Close()

	data, err := io.ReadAll(audio)
	if err != nil {
		return fmt.Errorf("read synthesized audio: %w", err)
	}

	e.mu.Lock()
	e.spoken = data
	e.mu.Unlock()
	return nil
}

// LastAudio returns the most recently synthesized question audio, or
// nil when nothing has been spoken yet.
func (e *Engine) LastAudio() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spoken
}
