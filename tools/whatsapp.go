package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const whatsappDefaultBaseURL = "https://graph.facebook.com"

// Limites de título impostos pela Cloud API.
const buttonTitleLimit = 20
const listRowTitleLimit = 24

// WhatsAppClient fala com a WhatsApp Cloud API. Implementa o Sender do engine:
// o kind da regra escolhe o payload e options carrega o extra de cada tipo
// (títulos de botões/linhas separados por vírgula, link de mídia, id de flow).
type WhatsAppClient struct {
	AccessToken   string
	PhoneNumberID string
	ApiVersion    string
	BaseURL       string
	HTTPClient    *http.Client
}

func NewWhatsAppClient(accessToken, phoneNumberID, apiVersion string) *WhatsAppClient {
	if apiVersion == "" {
		apiVersion = "v20.0"
	}
	return &WhatsAppClient{
		AccessToken:   accessToken,
		PhoneNumberID: phoneNumberID,
		ApiVersion:    apiVersion,
		BaseURL:       whatsappDefaultBaseURL,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Send monta o payload do kind pedido e posta em /<version>/<phone>/messages.
func (c *WhatsAppClient) Send(to, body, kind, options string) error {
	if strings.TrimSpace(c.AccessToken) == "" || strings.TrimSpace(c.PhoneNumberID) == "" {
		return fmt.Errorf("whatsapp: access token ou phone number id não configurados")
	}

	payload, err := buildPayload(to, body, kind, options)
	if err != nil {
		return err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.BaseURL, c.ApiVersion, c.PhoneNumberID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp: status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

func buildPayload(to, body, kind, options string) (map[string]any, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "texto":
		payload["type"] = "text"
		payload["text"] = map[string]any{"body": body}

	case "boton":
		buttons := make([]map[string]any, 0, 3)
		for i, title := range splitOptions(options) {
			buttons = append(buttons, map[string]any{
				"type": "reply",
				"reply": map[string]any{
					"id":    fmt.Sprintf("btn_%d", i+1),
					"title": truncate(title, buttonTitleLimit),
				},
			})
		}
		if len(buttons) == 0 {
			return nil, fmt.Errorf("whatsapp: regla boton sem opções")
		}
		payload["type"] = "interactive"
		payload["interactive"] = map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": buttons},
		}

	case "lista":
		rows := make([]map[string]any, 0, 10)
		for i, title := range splitOptions(options) {
			rows = append(rows, map[string]any{
				"id":    fmt.Sprintf("row_%d", i+1),
				"title": truncate(title, listRowTitleLimit),
			})
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("whatsapp: regla lista sem opções")
		}
		payload["type"] = "interactive"
		payload["interactive"] = map[string]any{
			"type": "list",
			"body": map[string]any{"text": body},
			"action": map[string]any{
				"button":   "Ver opciones",
				"sections": []map[string]any{{"title": "Opciones", "rows": rows}},
			},
		}

	case "image":
		img := map[string]any{"link": options}
		if body != "" {
			img["caption"] = body
		}
		payload["type"] = "image"
		payload["image"] = img

	case "video":
		vid := map[string]any{"link": options}
		if body != "" {
			vid["caption"] = body
		}
		payload["type"] = "video"
		payload["video"] = vid

	case "audio":
		payload["type"] = "audio"
		payload["audio"] = map[string]any{"link": options}

	case "document":
		doc := map[string]any{"link": options}
		if body != "" {
			doc["caption"] = body
		}
		payload["type"] = "document"
		payload["document"] = doc

	case "flow":
		payload["type"] = "interactive"
		payload["interactive"] = map[string]any{
			"type": "flow",
			"body": map[string]any{"text": body},
			"action": map[string]any{
				"name": "flow",
				"parameters": map[string]any{
					"flow_message_version": "3",
					"flow_id":              options,
					"flow_cta":             "Abrir",
				},
			},
		}

	default:
		return nil, fmt.Errorf("whatsapp: kind desconhecido: %q", kind)
	}

	return payload, nil
}

func splitOptions(options string) []string {
	parts := strings.Split(options, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
