package config

import (
	"encoding/json"
	"fmt"
)

// Secrets is the JSON document stored in the SSM parameter named by Global.SSMKey.
type Secrets struct {
	WebhookSecret      string `json:"webhook_secret,omitempty"`
	DownstreamURL      string `json:"downstream_url,omitempty"`
	DownstreamUsername string `json:"downstream_username,omitempty"`
	DownstreamPassword string `json:"downstream_password,omitempty"`
}

// ApplySecrets decodes raw as a Secrets document and fills the parameters that are still empty.
// Downstream credentials also replace the built-in defaults.
func ApplySecrets(raw string) error {
	var s Secrets
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return fmt.Errorf("failed to unmarshal secrets: %w", err)
	}
	fill(&GitHub.WebhookSecret, s.WebhookSecret)
	fill(&Downstream.URL, s.DownstreamURL)
	if Downstream.Username == DefaultDownstreamCredential && Downstream.Password == DefaultDownstreamCredential {
		Downstream.Username, Downstream.Password = "", ""
	}
	fill(&Downstream.Username, s.DownstreamUsername)
	fill(&Downstream.Password, s.DownstreamPassword)
	fill(&Downstream.Username, DefaultDownstreamCredential)
	fill(&Downstream.Password, DefaultDownstreamCredential)
	return nil
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
