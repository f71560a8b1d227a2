package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/dates"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/google/generative-ai-go/genai"
)

const extractionSystemPrompt = `Você é um assistente especializado em extrair informações sobre problemas com voos.
Analise o texto fornecido e extraia as informações solicitadas.
Responda APENAS com um JSON contendo os campos solicitados.
Se alguma informação não estiver disponível no texto, use "Não informado".`

const draftingSystemPrompt = `Você é um advogado especialista em direito do consumidor e transporte aéreo.
Redija a seção "DOS FATOS" de uma petição inicial em português, em terceira pessoa,
com parágrafos corridos e linguagem jurídica formal, usando apenas as informações recebidas.
Não invente datas, valores ou nomes que não tenham sido informados.`

var extractionFields = []struct{ key, desc string }{
	{"motivo_voo", "Motivo da viagem"},
	{"problema", "Qual foi o problema enfrentado"},
	{"compromisso_perdido", "Se perdeu algum compromisso por conta do atraso"},
	{"contexto", "Condição física ou emocional do passageiro"},
	{"momento_informacao", "Quando foi informado do problema"},
	{"tipo_voo", "Nacional ou Internacional"},
	{"origem_voo", "Cidade/Aeroporto de origem"},
	{"destino_voo", "Cidade/Aeroporto de destino"},
	{"escala", "Se houve e onde foi"},
	{"local_problema", "Onde ocorreu o problema"},
	{"data_voo_inicial", "Data prevista do voo (dd/mm/aaaa)"},
	{"horario_voo_inicial", "Horário previsto do voo (HH:MM)"},
	{"data_voo_real", "Data em que o voo de fato aconteceu (dd/mm/aaaa)"},
	{"horario_voo_real", "Horário em que o voo de fato aconteceu (HH:MM)"},
	{"tempo_atraso", "Tempo de atraso (calcule se possível)"},
	{"solicitou_reacomodacao", "Se solicitou ser reacomodado em outro voo"},
	{"opcao_reacomodacao", "Descreva a opção de reacomodação recebida"},
	{"recebeu_auxilio", "Se recebeu algum auxílio como voucher de hotel ou comida"},
	{"auxilio_recebido", "Descreva o auxílio recebido"},
	{"teve_custos", "Se teve algum custo com uber, hotel ou comida"},
	{"descricao_custos", "Descreva os custos"},
	{"valor_total_custos", "Valor total dos custos (danos materiais)"},
}

func buildExtractionPrompt(facts string) string {
	var sb strings.Builder
	sb.WriteString("Extraia as seguintes informações do texto abaixo:\n")
	for _, f := range extractionFields {
		fmt.Fprintf(&sb, "- %s: %s\n", f.key, f.desc)
	}
	fmt.Fprintf(&sb, "\nTexto: %s", strings.TrimSpace(facts))
	return sb.String()
}

// ExtractFlightInfo asks the extraction model for the structured flight details in facts.
func (r *AIRouter) ExtractFlightInfo(ctx context.Context, facts string) (*model.FlightInfo, error) {
	if strings.TrimSpace(facts) == "" {
		return nil, model.Kind(model.ErrValidation, fmt.Errorf("fatos do cliente vazios"))
	}

	text, err := r.generate(ctx, generateRequest{
		Model:       config.GeminiModelsConfig.Extraction,
		Temperature: config.LLM.ExtractionTemperature,
		JSON:        true,
		System:      extractionSystemPrompt,
		Parts:       []genai.Part{genai.Text(buildExtractionPrompt(facts))},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract flight info: %w", err)
	}

	info, err := parseFlightInfo(text)
	if err != nil {
		return nil, err
	}
	log.Printf("Flight info extracted: %s -> %s (%s)", info.OrigemVoo, info.DestinoVoo, info.Problema)
	return info, nil
}

// parseFlightInfo decodes the model answer, tolerating a fenced code block, then fills
// defaults and normalizes dates and times.
func parseFlightInfo(text string) (*model.FlightInfo, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	// the model may answer booleans or numbers for yes/no and amount fields
	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, model.Kind(model.ErrLLM, fmt.Errorf("failed to parse JSON response: %w", err))
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		if v != nil {
			fields[k] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, model.Kind(model.ErrLLM, fmt.Errorf("failed to parse JSON response: %w", err))
	}

	var info model.FlightInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, model.Kind(model.ErrLLM, fmt.Errorf("failed to parse JSON response: %w", err))
	}
	NormalizeFlightInfo(&info)
	return &info, nil
}

// NormalizeFlightInfo fills missing fields with "Não informado" and rewrites parseable
// dates as dd/mm/yyyy and times as HH:MM.
func NormalizeFlightInfo(info *model.FlightInfo) {
	for _, p := range []*string{&info.DataVooInicial, &info.DataVooReal} {
		if v := dates.FormatDate(*p); v != "" {
			*p = v
		}
	}
	for _, p := range []*string{&info.HorarioVooInicial, &info.HorarioVooReal} {
		if v := dates.FormatTime(*p); v != "" {
			*p = v
		}
	}
	info.FillDefaults()
}

// BuildFactsPrompt renders the client's account and the flight details as the drafting message.
func BuildFactsPrompt(info *model.FlightInfo, facts string) string {
	return fmt.Sprintf(`FATOS RELATADOS PELO CLIENTE:
%s

DADOS COMPLEMENTARES DO VOO:

DADOS DO VOO:
- Tipo: %s
- Origem: %s
- Destino: %s
- Escala: %s
- Data Prevista: %s
- Horário Previsto: %s
- Data Real: %s
- Horário Real: %s
- Tempo de Atraso: %s

DETALHES DO PROBLEMA:
- Motivo da Viagem: %s
- Problema: %s
- Local do Problema: %s
- Momento da Informação: %s
- Compromisso Perdido: %s
- Contexto do Passageiro: %s

AUXÍLIOS E CUSTOS:
- Solicitou Reacomodação: %s
- Opção Recebida: %s
- Recebeu Auxílio: %s
- Auxílio Recebido: %s
- Teve Custos: %s
- Descrição dos Custos: %s
- Valor Total: %s
`,
		strings.TrimSpace(facts),
		info.TipoVoo, info.OrigemVoo, info.DestinoVoo, info.Escala,
		info.DataVooInicial, info.HorarioVooInicial, info.DataVooReal, info.HorarioVooReal, info.TempoAtraso,
		info.MotivoVoo, info.Problema, info.LocalProblema, info.MomentoInformacao, info.CompromissoPerdido, info.Contexto,
		info.SolicitouReacomodacao, info.OpcaoReacomodacao, info.RecebeuAuxilio, info.AuxilioRecebido,
		info.TeveCustos, info.DescricaoCustos, info.ValorTotalCustos,
	)
}

// GenerateFacts drafts the facts narrative. The newest training pairs of caso are sent
// first as example turns, oldest first.
func (r *AIRouter) GenerateFacts(ctx context.Context, info *model.FlightInfo, facts, caso string) (string, error) {
	if info == nil {
		return "", model.Kind(model.ErrValidation, fmt.Errorf("informações do voo ausentes"))
	}
	if strings.TrimSpace(facts) == "" {
		return "", model.Kind(model.ErrValidation, fmt.Errorf("fatos do cliente vazios"))
	}

	normalized := *info
	normalized.FillDefaults()

	history, err := r.fewShotHistory(ctx, caso)
	if err != nil {
		// drafting still works without examples
		log.Printf("Warning: failed to load training examples for %q: %v", caso, err)
	}

	text, err := r.generate(ctx, generateRequest{
		Model:       config.GeminiModelsConfig.Drafting,
		Temperature: config.LLM.DraftingTemperature,
		System:      draftingSystemPrompt,
		History:     history,
		Parts:       []genai.Part{genai.Text(BuildFactsPrompt(&normalized, facts))},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate facts: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", model.Kind(model.ErrLLM, fmt.Errorf("empty facts from model"))
	}
	return text, nil
}

func (r *AIRouter) fewShotHistory(ctx context.Context, caso string) ([]*genai.Content, error) {
	if r.training == nil || caso == "" || config.LLM.FewShotExamples <= 0 {
		return nil, nil
	}
	examples, err := r.training.ListTrainingExamples(ctx, caso, config.LLM.FewShotExamples)
	if err != nil {
		return nil, err
	}

	history := make([]*genai.Content, 0, 2*len(examples))
	for i := len(examples) - 1; i >= 0; i-- {
		history = append(history,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(examples[i].InputText)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(examples[i].OutputText)}},
		)
	}
	return history, nil
}
