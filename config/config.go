package config

import (
	"encoding/json"
	"log"
	"os"
	"strings"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	WhatsApp struct {
		AccessToken   string `json:"access_token"`
		PhoneNumberID string `json:"phone_number_id"`
		ApiVersion    string `json:"api_version"`
		VerifyToken   string `json:"verify_token"`
		AppSecret     string `json:"app_secret"`
	} `json:"whatsapp"`

	Flow struct {
		EntryStep       string `json:"entry_step"`
		EntryTrigger    string `json:"entry_trigger"`
		DebounceSeconds int    `json:"debounce_seconds"`
		SessionTimeout  int    `json:"session_timeout_seconds"`
	} `json:"flow"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Flow.EntryStep == "" {
		c.Flow.EntryStep = "menu_principal"
	}
	if c.Flow.EntryTrigger == "" {
		c.Flow.EntryTrigger = "iniciar"
	}
	if c.Flow.DebounceSeconds <= 0 {
		c.Flow.DebounceSeconds = 10
	}
	if c.Flow.SessionTimeout <= 0 {
		c.Flow.SessionTimeout = 600
	}

	// Segredos podem vir do ambiente (deploys sem config.json completo).
	if v := getenv("WHATSAPP_ACCESS_TOKEN"); v != "" {
		c.WhatsApp.AccessToken = v
	}
	if v := getenv("WHATSAPP_PHONE_NUMBER_ID"); v != "" {
		c.WhatsApp.PhoneNumberID = v
	}
	if v := getenv("WEBHOOK_VERIFY_TOKEN"); v != "" {
		c.WhatsApp.VerifyToken = v
	}
	if v := getenv("WEBHOOK_APP_SECRET"); v != "" {
		c.WhatsApp.AppSecret = v
	}
	if c.WhatsApp.ApiVersion == "" {
		c.WhatsApp.ApiVersion = "v20.0"
	}

	return c
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
