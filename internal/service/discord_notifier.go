package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

// DiscordNotifier posts embeds to a Discord webhook. A nil notifier is a no-op.
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordNotifier returns nil when webhookURL is empty.
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	if webhookURL == "" {
		return nil
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	URL         string         `json:"url,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

const (
	colorRed    = 0xFF0000
	colorYellow = 0xFFFF00
	colorGreen  = 0x00CC00
)

// NotifyError reports a failed operation.
func (d *DiscordNotifier) NotifyError(operation, errorMsg string) {
	if d == nil {
		return
	}

	embed := discordEmbed{
		Title: "Erro no SmartLegal",
		Color: colorRed,
		Fields: []discordField{
			{Name: "Operação", Value: operation, Inline: true},
			{Name: "Erro", Value: truncate(errorMsg, 1024), Inline: false},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	d.send(discordPayload{Embeds: []discordEmbed{embed}})
}

// NotifyOnboarding reports a finished onboarding with the status of each step.
func (d *DiscordNotifier) NotifyOnboarding(result *model.OnboardingResult) {
	if d == nil || result == nil || result.Client == nil {
		return
	}
	d.send(discordPayload{Embeds: []discordEmbed{onboardingEmbed(result)}})
}

func onboardingEmbed(result *model.OnboardingResult) discordEmbed {
	color := colorGreen
	var lines []string
	for _, step := range result.Steps {
		icon := "✅"
		switch step.Status {
		case model.StepSkipped:
			icon = "⏭️"
		case model.StepFailed:
			icon = "❌"
			color = colorYellow
		}
		line := fmt.Sprintf("%s %s", icon, step.Name)
		if step.Detail != "" {
			line += ": " + step.Detail
		}
		lines = append(lines, line)
	}
	stepList := strings.Join(lines, "\n")
	if len(stepList) > 4000 {
		stepList = stepList[:4000] + "\n..."
	}

	c := result.Client
	embed := discordEmbed{
		Title:       "Novo cliente: " + c.NomeCompleto,
		Description: stepList,
		Color:       color,
		Fields: []discordField{
			{Name: "Caso", Value: fmt.Sprintf("%s / %s", c.Caso, c.AssuntoCaso), Inline: true},
			{Name: "Responsável", Value: c.ResponsavelComercial, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if result.FolderID != "" {
		embed.URL = FolderURL(result.FolderID)
	}
	return embed
}

func (d *DiscordNotifier) send(payload discordPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Discord notify: encode failed: %v", err)
		return
	}

	resp, err := d.httpClient.Post(d.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("Discord notify: send failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("Discord notify: HTTP %d", resp.StatusCode)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
