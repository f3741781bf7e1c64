package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	APIBaseURL    string `env:"API-BASE-URL" ini:"api_base_url"`
	APIKey        string `env:"API-KEY" ini:"api_key"`
	Model         string `env:"MODEL" ini:"model"`
	MultiDocModel string `env:"MULTI-DOC-MODEL" ini:"multi_doc_model"`

	SearchEngineID string `env:"SEARCH-ENGINE-ID" ini:"search_engine_id"`
	SearchAPIKey   string `env:"SEARCH-API-KEY" ini:"search_api_key"`
	SearchCount    int    `env:"SEARCH-COUNT" ini:"search_count"`
	ReaderAPIKey   string `env:"READER-API-KEY" ini:"reader_api_key"`

	// PDFEngine is forwarded to the host's text extractor, not interpreted
	// here. One of auto, mistral-ocr, pdf-text, native.
	PDFEngine string `env:"PDF-ENGINE" ini:"pdf_engine"`

	Language string `env:"LANGUAGE" ini:"language"`
}
