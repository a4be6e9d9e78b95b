package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatflow/flow"
	"chatflow/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

/************************************************
/**** MARK: FAKES ****/
/************************************************/

type memRules struct{}

func (memRules) LookupExact(step, normalized string) (*models.Rule, error) { return nil, nil }
func (memRules) LookupStep(step string) ([]models.Rule, error)             { return nil, nil }

type memSessions struct{}

func (memSessions) Get(contact string) (*models.ChatSession, error)          { return nil, nil }
func (memSessions) Set(contact, step, status string) error                   { return nil }
func (memSessions) SetPending(contact string, ruleID *int64) error           { return nil }
func (memSessions) Clear(contact string) error                               { return nil }
func (memSessions) Touch(contact string) error                               { return nil }
func (memSessions) ListExpired(time.Time) ([]models.ChatSession, error)      { return nil, nil }

type memDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDedup) Register(eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

type memSender struct{}

func (memSender) Send(to, body, kind, options string) error { return nil }

func newTestEngine(dedup *memDedup) *flow.Engine {
	return flow.New(flow.Config{
		EntryStep:      "menu_principal",
		EntryTrigger:   "iniciar",
		DebounceWindow: time.Hour, // o teste não espera o flush
		SessionTimeout: time.Hour,
	}, flow.Deps{
		Rules:    memRules{},
		Sessions: memSessions{},
		Dedup:    dedup,
		Sender:   memSender{},
	})
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	r.GET("/api/webhook", WebhookVerify)
	r.POST("/api/webhook", WebhookUpdate)
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

/************************************************
/**** MARK: VERIFY ****/
/************************************************/

func TestWebhookVerifyOK(t *testing.T) {
	SetupWebhook(nil, "token-123", "")
	r := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=token-123&hub.challenge=desafio", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "desafio", w.Body.String())
}

func TestWebhookVerifyWrongToken(t *testing.T) {
	SetupWebhook(nil, "token-123", "")
	r := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=errado&hub.challenge=desafio", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookVerifyMissingChallenge(t *testing.T) {
	SetupWebhook(nil, "token-123", "")
	r := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=token-123", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

/************************************************
/**** MARK: UPDATE ****/
/************************************************/

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "123",
    "changes": [{
      "field": "messages",
      "value": {
        "messages": [
          {"from": "56911111111", "id": "wamid.text1", "type": "text", "text": {"body": "Hola"}},
          {"from": "56911111111", "id": "wamid.btn1", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "btn_1", "title": "Barra"}}},
          {"from": "56922222222", "id": "wamid.img1", "type": "image",
           "image": {"id": "media-9", "mime_type": "image/jpeg"}}
        ]
      }
    }]
  }]
}`

func TestWebhookUpdateAcceptsSignedPayload(t *testing.T) {
	dedup := &memDedup{seen: make(map[string]bool)}
	SetupWebhook(newTestEngine(dedup), "token-123", "app-secret")
	r := newTestRouter()

	body := []byte(samplePayload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(samplePayload))
	req.Header.Set("X-Hub-Signature-256", sign("app-secret", body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EVENT_RECEIVED", w.Body.String())

	// as três mensagens passaram pela admissão
	assert.True(t, dedup.seen["wamid.text1"])
	assert.True(t, dedup.seen["wamid.btn1"])
	assert.True(t, dedup.seen["wamid.img1"])
}

func TestWebhookUpdateRejectsBadSignature(t *testing.T) {
	dedup := &memDedup{seen: make(map[string]bool)}
	SetupWebhook(newTestEngine(dedup), "token-123", "app-secret")
	r := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(samplePayload))
	req.Header.Set("X-Hub-Signature-256", sign("outro-secret", []byte(samplePayload)))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, dedup.seen)
}

func TestWebhookUpdateRejectsMissingSignature(t *testing.T) {
	SetupWebhook(newTestEngine(&memDedup{seen: make(map[string]bool)}), "token-123", "app-secret")
	r := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(samplePayload))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

/************************************************
/**** MARK: EXTRACTION ****/
/************************************************/

func TestExtractInbound(t *testing.T) {
	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &payload))

	msgs := extractInbound(payload)
	require.Len(t, msgs, 3)

	assert.Equal(t, flow.INBOUND_KIND_TEXT, msgs[0].Kind)
	assert.Equal(t, "Hola", msgs[0].Text)
	assert.Equal(t, "56911111111", msgs[0].From)

	// reply de botão vira texto com o título escolhido
	assert.Equal(t, flow.INBOUND_KIND_INTERACTIVE, msgs[1].Kind)
	assert.Equal(t, "Barra", msgs[1].Text)

	assert.Equal(t, flow.INBOUND_KIND_IMAGE, msgs[2].Kind)
	assert.Equal(t, "media-9", msgs[2].MediaID)
	assert.Equal(t, "image/jpeg", msgs[2].MimeType)
}

func TestExtractInboundIgnoresJunk(t *testing.T) {
	raw := `{
	  "entry": [{
	    "changes": [
	      {"field": "statuses", "value": {"messages": [{"from": "1", "id": "wamid.x", "type": "text", "text": {"body": "oi"}}]}},
	      {"field": "messages", "value": {"messages": [
	        {"from": "1", "id": "", "type": "text", "text": {"body": "sem id"}},
	        {"from": "1", "id": "wamid.y", "type": "text", "text": {"body": "   "}},
	        {"from": "1", "id": "wamid.z", "type": "sticker"}
	      ]}}
	    ]
	  }]
	}`
	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Empty(t, extractInbound(payload))
}
