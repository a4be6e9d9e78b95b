package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"chatflow/flow"

	"github.com/gin-gonic/gin"
)

var webhookEngine *flow.Engine
var webhookVerifyToken string
var webhookAppSecret string

// SetupWebhook injeta o engine e os segredos do webhook. Chamado uma vez no
// boot; segredos vazios caem nos envs de sempre.
func SetupWebhook(e *flow.Engine, verifyToken, appSecret string) {
	webhookEngine = e
	webhookVerifyToken = strings.TrimSpace(verifyToken)
	webhookAppSecret = strings.TrimSpace(appSecret)
}

/************************************************
/**** MARK: PAYLOAD ****/
/************************************************/

type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []WebhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type WebhookMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive struct {
		Type        string `json:"type"`
		ButtonReply struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
	Image struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"image"`
	Audio struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"audio"`
	Video struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"video"`
}

// extractInbound achata o envelope do Meta (entries -> changes -> messages)
// nas mensagens que o engine entende. Replies de botão e lista viram texto
// com o título escolhido.
func extractInbound(payload WebhookPayload) []flow.Inbound {
	var out []flow.Inbound

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if strings.TrimSpace(change.Field) != "messages" {
				continue
			}
			for _, m := range change.Value.Messages {
				in := flow.Inbound{
					EventID: strings.TrimSpace(m.ID),
					From:    strings.TrimSpace(m.From),
				}
				if in.EventID == "" || in.From == "" {
					continue
				}

				switch strings.ToLower(strings.TrimSpace(m.Type)) {
				case "text":
					in.Kind = flow.INBOUND_KIND_TEXT
					in.Text = strings.TrimSpace(m.Text.Body)
					if in.Text == "" {
						continue
					}
				case "interactive":
					in.Kind = flow.INBOUND_KIND_INTERACTIVE
					if t := strings.TrimSpace(m.Interactive.ButtonReply.Title); t != "" {
						in.Text = t
					} else if t := strings.TrimSpace(m.Interactive.ListReply.Title); t != "" {
						in.Text = t
					} else {
						continue
					}
				case "image":
					in.Kind = flow.INBOUND_KIND_IMAGE
					in.MediaID = m.Image.ID
					in.MimeType = m.Image.MimeType
				case "audio":
					in.Kind = flow.INBOUND_KIND_AUDIO
					in.MediaID = m.Audio.ID
					in.MimeType = m.Audio.MimeType
				case "video":
					in.Kind = flow.INBOUND_KIND_VIDEO
					in.MediaID = m.Video.ID
					in.MimeType = m.Video.MimeType
				default:
					continue
				}

				out = append(out, in)
			}
		}
	}

	return out
}

/************************************************
/**** MARK: SIGNATURE ****/
/************************************************/

// verifyMetaSignature valida o corpo cru contra o X-Hub-Signature-256 do Meta
// (HMAC-SHA256 com o app secret).
func verifyMetaSignature(c *gin.Context, rawBody []byte) (bool, string) {
	secret := webhookAppSecret
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("WEBHOOK_APP_SECRET"))
	}
	if secret == "" {
		return false, "app secret não configurado"
	}

	sig := strings.TrimSpace(c.GetHeader("X-Hub-Signature-256"))
	if sig == "" {
		return false, "missing X-Hub-Signature-256"
	}
	if !strings.HasPrefix(sig, "sha256=") {
		return false, "invalid X-Hub-Signature-256 format"
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(sig, "sha256="))
	if err != nil {
		return false, "invalid signature hex"
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(rawBody)

	if !hmac.Equal(provided, mac.Sum(nil)) {
		return false, "signature mismatch"
	}
	return true, ""
}

/************************************************
/**** MARK: HANDLERS ****/
/************************************************/

// GET /webhook — handshake de inscrição do Meta.
func WebhookVerify(c *gin.Context) {
	verifyToken := webhookVerifyToken
	if verifyToken == "" {
		verifyToken = strings.TrimSpace(os.Getenv("WEBHOOK_VERIFY_TOKEN"))
	}
	if verifyToken == "" {
		RespondError(c, "verify token não configurado", http.StatusInternalServerError)
		return
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	tokenOK := subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) == 1
	if mode == "subscribe" && tokenOK && challenge != "" {
		c.String(http.StatusOK, "%s", challenge)
		return
	}

	RespondError(c, "forbidden", http.StatusForbidden)
}

// POST /webhook — entrega de mensagens. Responde EVENT_RECEIVED rápido e
// despacha a admissão depois; o Meta reenvia o que não for respondido a tempo.
func WebhookUpdate(c *gin.Context) {
	if webhookEngine == nil {
		RespondError(c, "engine não configurado", http.StatusInternalServerError)
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		RespondError(c, "failed to read body", http.StatusBadRequest)
		return
	}

	if ok, reason := verifyMetaSignature(c, raw); !ok {
		RespondError(c, "forbidden: "+reason, http.StatusForbidden)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	msgs := extractInbound(payload)

	// responde rápido pro Meta
	c.String(http.StatusOK, "EVENT_RECEIVED")

	for _, in := range msgs {
		status, err := webhookEngine.HandleInbound(in)
		if err != nil {
			log.Printf("webhook: erro ao admitir %s de %s: %v", in.EventID, in.From, err)
			continue
		}
		log.Printf("webhook: %s de %s -> %s", in.EventID, in.From, status)
	}
}
