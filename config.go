package hidroweb

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults for the configuration surface. Every value can be overridden on
// the Config passed to NewClient.
const (
	DefaultBaseURL     = "https://www.ana.gov.br/hidrowebservice/EstacoesTelemetricas"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultChunkDays   = 366
	DefaultSearchLimit = 50
)

// Config is the full configuration surface of the client. It is copied at
// construction and immutable afterwards.
type Config struct {
	BaseURL  string
	User     string
	Password string

	Timeout    time.Duration // per attempt
	MaxRetries int           // attempts per request before failing

	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int

	// ChunkDays is the date-range span requested per page when assembling a
	// series. The upstream paginates by date sub-range, not by cursor.
	ChunkDays int

	// GapInterval overrides the series type's nominal sampling interval used
	// to synthesize gap markers. Zero keeps the per-type default.
	GapInterval time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// ConfigFromEnv reads the HIDROWEB_* environment variables, leaving defaults
// in place for anything unset or unparseable.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:    envString("HIDROWEB_BASE_URL", DefaultBaseURL),
		User:       os.Getenv("HIDROWEB_USER"),
		Password:   os.Getenv("HIDROWEB_PASSWORD"),
		Timeout:    time.Duration(envInt("HIDROWEB_TIMEOUT", int(DefaultTimeout/time.Second))) * time.Second,
		MaxRetries: envInt("HIDROWEB_MAX_RETRIES", DefaultMaxRetries),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// brazilianStates maps federative unit codes to names, used to validate the
// state filter before a request goes upstream.
var brazilianStates = map[string]string{
	"AC": "Acre", "AL": "Alagoas", "AP": "Amapá", "AM": "Amazonas",
	"BA": "Bahia", "CE": "Ceará", "DF": "Distrito Federal", "ES": "Espírito Santo",
	"GO": "Goiás", "MA": "Maranhão", "MT": "Mato Grosso", "MS": "Mato Grosso do Sul",
	"MG": "Minas Gerais", "PA": "Pará", "PB": "Paraíba", "PR": "Paraná",
	"PE": "Pernambuco", "PI": "Piauí", "RJ": "Rio de Janeiro", "RN": "Rio Grande do Norte",
	"RS": "Rio Grande do Sul", "RO": "Rondônia", "RR": "Roraima", "SC": "Santa Catarina",
	"SP": "São Paulo", "SE": "Sergipe", "TO": "Tocantins",
}

// ValidState reports whether code is a known federative unit code.
func ValidState(code string) bool {
	_, ok := brazilianStates[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}
