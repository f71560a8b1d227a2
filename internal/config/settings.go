package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// GCP
var (
	GCPProjectID string
	GCPRegion    string

	// Port is the HTTP listen port (Cloud Run injects PORT).
	Port string
)

// Database (Supabase Postgres or local SQLite)
var (
	// DatabaseDriver: postgres | sqlite
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	AutoMigrate    bool

	// Supabase Auth REST endpoint and anon key
	SupabaseURL string
	SupabaseKey string
)

// Staff authentication for /api endpoints.
var (
	// required | optional | disabled
	StaffAuthMode string
	// StaffToken is a static bearer token accepted in addition to Supabase sessions.
	StaffToken string
)

// Google Workspace
var (
	// GoogleCredentials holds the service account JSON. When empty the OAuth refresh
	// token flow is used instead.
	GoogleCredentials string

	RootFolderID string
	SheetID1     string
	SheetID2     string
	SheetRange   string

	ProcuracaoTemplateID string
	ContratoTemplateID   string
	PeticaoTemplateID    string

	// EnableFollowUpTasks creates a Google Task after the engagement e-mail is sent.
	EnableFollowUpTasks bool
	FollowUpDays        int
)

// Secret Manager secret names
const (
	SecretOAuthRefreshToken = "OAUTH_REFRESH_TOKEN"
	SecretGeminiAPIKey      = "GEMINI_API_KEY"
	SecretSMTPPassword      = "EMAIL_PASSWORD"
)

// GeminiModels names the model used for each LLM task.
type GeminiModels struct {
	Extraction    string
	Drafting      string
	Transcription string
}

var GeminiModelsConfig GeminiModels

// LLMConfig tunes extraction and drafting calls.
type LLMConfig struct {
	ExtractionTemperature float32
	DraftingTemperature   float32
	// FewShotExamples is how many stored training pairs are prepended to a drafting request.
	FewShotExamples int
}

var LLM LLMConfig

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

var SMTP SMTPConfig

var DiscordWebhookURL string

// FirmProfilePath points at the YAML firm profile used for petitions and e-mails.
var FirmProfilePath string

// MenuURLs are the external links shown on the main menu.
var MenuURLs map[string]string

// TimeZone used for every timestamp shown to clients.
const TimeZone = "America/Sao_Paulo"

// Onboarding form choices.
var (
	EstadosCivis = []string{"Solteiro(a)", "Casado(a)", "Divorciado(a)", "Viúvo(a)"}

	TiposCaso = []string{"Aéreo", "Trânsito", "Outros"}

	AssuntosCaso = []string{
		"Atraso de Voo",
		"Cancelamento de Voo",
		"Overbooking",
		"Downgrade",
		"Extravio de Bagagem",
		"Danos de Bagagem",
		"Multas",
		"Lei Seca",
		"Outros",
	}

	ResponsaveisComerciais = []string{"Bruno", "Poppe", "Motta", "Caval", "Fred", "Mari", "Outro"}

	UFs = []string{
		"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA", "MT", "MS",
		"MG", "PA", "PB", "PR", "PE", "PI", "RJ", "RN", "RS", "RO", "RR", "SC",
		"SP", "SE", "TO",
	}
)

// Upload limits and accepted formats.
var (
	MaxUploadBytes int64

	// UploadMaxParallel bounds concurrent Drive uploads during onboarding.
	UploadMaxParallel int

	DocumentExtensions = []string{"pdf", "png", "jpg", "jpeg", "docx"}
	AudioExtensions    = []string{"ogg", "oga", "mp3", "wav", "m4a", "mp4"}
)

type APIConfig struct {
	TimeoutMS     int
	DownloadRetry int
}

var API APIConfig

func init() {
	Load()
}

// LoadDotEnv reads .env files (if present) and reloads every setting.
// Variables already set in the environment win over the file.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	Load()
	return err
}

// Load (re)reads every setting from the environment.
func Load() {
	GCPProjectID = GetEnv("GCP_PROJECT_ID", "")
	GCPRegion = GetEnv("GCP_REGION", "southamerica-east1")
	Port = GetEnv("PORT", "8080")

	DatabaseDriver = strings.ToLower(GetEnv("DATABASE_DRIVER", "postgres"))
	DatabaseURL = os.Getenv("DATABASE_URL")
	SQLitePath = GetEnv("SQLITE_PATH", "data/smartlegal.db")
	AutoMigrate = GetEnvBool("AUTO_MIGRATE", true)

	SupabaseURL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	SupabaseKey = os.Getenv("SUPABASE_KEY")

	StaffAuthMode = GetEnv("STAFF_AUTH_MODE", "required")
	StaffToken = os.Getenv("STAFF_TOKEN")

	GoogleCredentials = os.Getenv("GOOGLE_CREDENTIALS")
	RootFolderID = os.Getenv("ROOT_FOLDER_ID")
	SheetID1 = os.Getenv("SHEET_ID_1")
	SheetID2 = os.Getenv("SHEET_ID_2")
	SheetRange = GetEnv("SHEET_RANGE", "A:E")
	ProcuracaoTemplateID = os.Getenv("PROCURACAO_TEMPLATE_ID")
	ContratoTemplateID = os.Getenv("CONTRATO_TEMPLATE_ID")
	PeticaoTemplateID = os.Getenv("PETICAO_TEMPLATE_ID")
	EnableFollowUpTasks = GetEnvBool("ENABLE_FOLLOW_UP_TASKS", true)
	FollowUpDays = GetEnvInt("FOLLOW_UP_DAYS", 3)

	GeminiModelsConfig = GeminiModels{
		Extraction:    GetEnv("GEMINI_EXTRACTION_MODEL", "gemini-2.0-flash"),
		Drafting:      GetEnv("GEMINI_DRAFTING_MODEL", "gemini-2.5-pro"),
		Transcription: GetEnv("GEMINI_TRANSCRIPTION_MODEL", "gemini-2.0-flash"),
	}
	LLM = LLMConfig{
		ExtractionTemperature: 0.3,
		DraftingTemperature:   0.7,
		FewShotExamples:       GetEnvInt("FEW_SHOT_EXAMPLES", 3),
	}

	SMTP = SMTPConfig{
		Host:     os.Getenv("EMAIL_HOST"),
		Port:     GetEnvInt("EMAIL_PORT", 587),
		User:     os.Getenv("EMAIL_USER"),
		Password: os.Getenv("EMAIL_PASSWORD"),
		From:     os.Getenv("EMAIL_FROM"),
	}

	DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")
	FirmProfilePath = GetEnv("FIRM_PROFILE_PATH", "resources/firm.yaml")

	MenuURLs = map[string]string{
		"CLIENTES_SMARTLEGAL": os.Getenv("URL_CLIENTES"),
		"PROCESSOS_ANDAMENTO": os.Getenv("URL_PROCESSOS"),
		"LEADS_ADS":           os.Getenv("URL_LEADS"),
		"CRM_RD":              os.Getenv("URL_CRM"),
		"DRIVE_GMAIL":         os.Getenv("URL_DRIVE"),
	}

	MaxUploadBytes = int64(GetEnvInt("MAX_UPLOAD_MB", 25)) << 20
	UploadMaxParallel = GetEnvInt("UPLOAD_MAX_PARALLEL", 3)

	API = APIConfig{
		TimeoutMS:     GetEnvInt("API_TIMEOUT_MS", 30000),
		DownloadRetry: 5,
	}
}

// GetEnv returns the variable or defaultValue when unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool parses a boolean variable.
func GetEnvBool(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on", "sim", "s":
		return true
	case "0", "false", "f", "no", "n", "off", "nao", "não":
		return false
	default:
		return defaultValue
	}
}

// GetEnvInt reads an integer variable, falling back on missing or malformed values.
func GetEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// Contains reports whether v is one of the allowed options.
func Contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
