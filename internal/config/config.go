package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "AWARD_SCANNER_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	chatGPTAPIKeyEnv = "CHATGPT_API_KEY"
	chatGPTModelEnv  = "CHATGPT_MODEL"
	pagesFileEnv     = "AWARD_SCANNER_PAGES"
)

// Config holds the settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	ChatGPT    ChatGPTConfig    `yaml:"chatgpt"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Keywords   KeywordConfig    `yaml:"keywords"`
	Intel      IntelConfig      `yaml:"intel"`
	Input      InputConfig      `yaml:"input"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes optional Postgres snapshot persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ChatGPTConfig defines how to contact the completion API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// ExtractionConfig bounds chunking and the retry policy applied to every
// completion call.
type ExtractionConfig struct {
	ChunkLimit   int           `yaml:"chunkLimit"`
	Retries      int           `yaml:"retries"`
	RetryDelayMS int           `yaml:"retryDelayMs"`
	retryDelay   time.Duration `yaml:"-"`
}

// RetryDelay resolves the configured delay between completion attempts.
func (e ExtractionConfig) RetryDelay() time.Duration {
	if e.retryDelay > 0 {
		return e.retryDelay
	}
	return time.Duration(e.RetryDelayMS) * time.Millisecond
}

// KeywordConfig carries every keyword set used by the validators and the
// pattern extractor. Sets are injected at component construction so tests
// can substitute fixtures.
type KeywordConfig struct {
	BanTokens    []string `yaml:"banTokens"`
	CompanyHints []string `yaml:"companyHints"`
	WinnerKeys   []string `yaml:"winnerKeys"`
	AgencyKeys   []string `yaml:"agencyKeys"`
	ReasonKeys   []string `yaml:"reasonKeys"`
	AmountKeys   []string `yaml:"amountKeys"`
	AmountUnits  []string `yaml:"amountUnits"`
}

// IntelConfig tunes the lightweight competitor-intel path.
type IntelConfig struct {
	AwardContextKeys  []string `yaml:"awardContextKeys"`
	CompetitionKeys   []string `yaml:"competitionKeys"`
	InstitutionKeys   []string `yaml:"institutionKeys"`
	ConcentrationNorm float64  `yaml:"concentrationNorm"`
}

// InputConfig points the single-run binary at a materialized pages file.
type InputConfig struct {
	PagesFile string `yaml:"pagesFile"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
	if v := os.Getenv(pagesFileEnv); v != "" {
		c.Input.PagesFile = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}

	if override.Extraction.ChunkLimit > 0 {
		base.Extraction.ChunkLimit = override.Extraction.ChunkLimit
	}
	if override.Extraction.Retries > 0 {
		base.Extraction.Retries = override.Extraction.Retries
	}
	if override.Extraction.RetryDelayMS > 0 {
		base.Extraction.RetryDelayMS = override.Extraction.RetryDelayMS
	}

	base.Keywords = mergeKeywords(base.Keywords, override.Keywords)

	if len(override.Intel.AwardContextKeys) > 0 {
		base.Intel.AwardContextKeys = override.Intel.AwardContextKeys
	}
	if len(override.Intel.CompetitionKeys) > 0 {
		base.Intel.CompetitionKeys = override.Intel.CompetitionKeys
	}
	if len(override.Intel.InstitutionKeys) > 0 {
		base.Intel.InstitutionKeys = override.Intel.InstitutionKeys
	}
	if override.Intel.ConcentrationNorm > 0 {
		base.Intel.ConcentrationNorm = override.Intel.ConcentrationNorm
	}

	if override.Input.PagesFile != "" {
		base.Input.PagesFile = override.Input.PagesFile
	}

	return base
}

func mergeKeywords(base, override KeywordConfig) KeywordConfig {
	if len(override.BanTokens) > 0 {
		base.BanTokens = override.BanTokens
	}
	if len(override.CompanyHints) > 0 {
		base.CompanyHints = override.CompanyHints
	}
	if len(override.WinnerKeys) > 0 {
		base.WinnerKeys = override.WinnerKeys
	}
	if len(override.AgencyKeys) > 0 {
		base.AgencyKeys = override.AgencyKeys
	}
	if len(override.ReasonKeys) > 0 {
		base.ReasonKeys = override.ReasonKeys
	}
	if len(override.AmountKeys) > 0 {
		base.AmountKeys = override.AmountKeys
	}
	if len(override.AmountUnits) > 0 {
		base.AmountUnits = override.AmountUnits
	}
	return base
}

// Default returns the configuration used when no file or environment
// overrides are present. The keyword sets target Korean public-procurement
// notices.
func Default() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			APIKey:   "",
			SystemPrompt: "역할: 당신은 한국어 공공입찰 결과 문서를 정리하는 어시스턴트입니다. " +
				"항상 사실만 기반으로, 지정된 JSON 스키마로만 응답하세요. " +
				"문서에 명시되지 않은 정보를 생성하지 마세요.",
		},
		Extraction: ExtractionConfig{
			ChunkLimit:   9000,
			Retries:      2,
			RetryDelayMS: 500,
		},
		Keywords: KeywordConfig{
			BanTokens: []string{
				"결정기준", "결정방식", "유의사항", "제안요청서", "RFP", "제안서",
				"내용이", "상세", "계획서", "시험운영", "평가기준", "가점", "감점",
				"배점", "평가표", "제출서류", "입찰공고", "제안요청", "공고", "발주",
				"과업", "범위", "목적",
				"가 제안한", "에대해결과", "에서 제외함", "통보", "필요시", "해야 하며",
			},
			CompanyHints: []string{
				"주식회사", "㈜", "(주)", "(유)", "유한", "재단", "협동조합", "컨소시엄",
				"엔지니어링", "시스템", "정보", "테크", "솔루션", "컨설팅",
				"개발", "산업", "전자", "통신", "소프트", "데이터",
				"대학교 산학협력단", "산학협력단", "협회", "연구원", "연구소", "코리아",
				"INC", "LTD", "Co.", "Corp", "Company", "Limited",
			},
			WinnerKeys: []string{
				"낙찰자", "낙찰 업체", "낙찰업체", "우선협상대상자", "계약상대자",
				"선정 업체", "선정업체", "우선협상 대상자",
			},
			AgencyKeys: []string{
				"발주기관", "수요기관", "구매기관", "발주 부서", "계약기관",
				"계약부서", "발주처", "수요처",
			},
			ReasonKeys: []string{
				"사유", "근거", "평가", "정성", "정량", "우수", "기술", "가격", "낙찰", "선정",
			},
			AmountKeys:  []string{"낙찰금액", "계약금액", "추정가격", "투찰금액"},
			AmountUnits: []string{"원", "만원", "억원", "천만원", "백만원", "KRW", "₩"},
		},
		Intel: IntelConfig{
			AwardContextKeys:  []string{"낙찰", "개찰", "입찰 결과", "낙찰자", "협상대상자", "계약 체결"},
			CompetitionKeys:   []string{"입찰", "경쟁", "제안서", "기술평가"},
			InstitutionKeys:   []string{"조달청", "공단", "청", "원", "부", "시", "기관"},
			ConcentrationNorm: 40,
		},
		Input: InputConfig{PagesFile: "pages.json"},
	}
}
