package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/google/generative-ai-go/genai"
)

// ErrNoSpeech is returned when a transcription comes back empty.
var ErrNoSpeech = errors.New("Não foi possível entender o áudio")

var audioMimeTypes = map[string]string{
	"ogg": "audio/ogg",
	"oga": "audio/ogg",
	"mp3": "audio/mp3",
	"wav": "audio/wav",
	"m4a": "audio/aac",
	"mp4": "audio/mp4",
}

const transcriptionPrompt = `Transcreva integralmente o áudio em português do Brasil.
Responda apenas com o texto falado, sem comentários, rótulos ou marcações de tempo.
Se não houver fala compreensível, responda com uma linha vazia.`

// AudioMimeType maps an audio extension to its MIME type, or "" when unsupported.
func AudioMimeType(ext string) string {
	return audioMimeTypes[normalizeExt(ext)]
}

// ConvertToWAV converts WhatsApp voice notes and other audio formats to 16 kHz mono WAV.
func ConvertToWAV(ctx context.Context, content []byte, ext string) ([]byte, error) {
	ext = normalizeExt(ext)
	if !config.Contains(config.AudioExtensions, ext) {
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}
	if len(content) == 0 {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("arquivo de áudio vazio"))
	}

	wav, err := runTool(ctx, "ffmpeg", "input."+ext, content, "output.wav", func(in, out string) []string {
		return []string{"-y", "-loglevel", "error", "-i", in, "-ac", "1", "-ar", "16000", out}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert audio: %w", err)
	}
	log.Printf("Audio converted to WAV: %s (%d -> %d bytes)", ext, len(content), len(wav))
	return wav, nil
}

// Transcribe returns the pt-BR transcript of an audio file.
func (r *AIRouter) Transcribe(ctx context.Context, content []byte, mimeType string) (string, error) {
	if len(content) == 0 {
		return "", model.Kind(model.ErrValidation, fmt.Errorf("arquivo de áudio vazio"))
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	text, err := r.generate(ctx, generateRequest{
		Model: config.GeminiModelsConfig.Transcription,
		Parts: []genai.Part{
			genai.Blob{MIMEType: mimeType, Data: content},
			genai.Text(transcriptionPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", model.Kind(model.ErrLLM, ErrNoSpeech)
	}
	log.Printf("Audio transcribed (%d chars)", len(text))
	return text, nil
}
