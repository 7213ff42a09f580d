package main

import (
	"fmt"
	"net/url"

	"github.com/utiibeauty/parlour/libs/config"
	otelx "github.com/utiibeauty/parlour/libs/otel"
	"github.com/utiibeauty/parlour/services/admin-console/internal/kvstore"
	"github.com/utiibeauty/parlour/services/admin-console/internal/whatsapp"
)

type adminConfig struct {
	APIURL         string `envconfig:"PARLOUR_API_URL" default:"http://localhost:8080"`
	WhatsAppNumber string `envconfig:"WHATSAPP_NUMBER" default:"1234567890"`
	SiteURL        string `envconfig:"SITE_URL" default:"https://utibeauty.com"`
	StateFile      string `envconfig:"PARLOUR_STATE_FILE"`

	Tracing otelx.Config `ignored:"true"`
}

func loadConfig() (adminConfig, error) {
	var cfg adminConfig
	if err := config.Load("", &cfg); err != nil {
		return adminConfig{}, err
	}
	tracing, err := otelx.ConfigFromEnv(serviceName)
	if err != nil {
		return adminConfig{}, err
	}
	cfg.Tracing = tracing
	if cfg.StateFile == "" {
		cfg.StateFile = kvstore.DefaultPath()
	}
	return cfg, cfg.validate()
}

func (c adminConfig) validate() error {
	for key, raw := range map[string]string{"PARLOUR_API_URL": c.APIURL, "SITE_URL": c.SiteURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an http(s) url (got %q)", key, raw)
		}
	}
	if whatsapp.Digits(c.WhatsAppNumber) == "" {
		return fmt.Errorf("WHATSAPP_NUMBER must contain digits (got %q)", c.WhatsAppNumber)
	}
	return nil
}
