package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturingClient(t *testing.T, status int) (*WhatsAppClient, *map[string]any, *http.Request) {
	t.Helper()

	captured := map[string]any{}
	var lastReq http.Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastReq = *r
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewWhatsAppClient("token-abc", "phone-123", "v20.0")
	c.BaseURL = srv.URL
	return c, &captured, &lastReq
}

func TestSendText(t *testing.T) {
	c, captured, lastReq := newCapturingClient(t, http.StatusOK)

	err := c.Send("56911111111", "Hola", "texto", "")
	require.NoError(t, err)

	assert.Equal(t, "/v20.0/phone-123/messages", lastReq.URL.Path)
	assert.Equal(t, "Bearer token-abc", lastReq.Header.Get("Authorization"))

	p := *captured
	assert.Equal(t, "whatsapp", p["messaging_product"])
	assert.Equal(t, "56911111111", p["to"])
	assert.Equal(t, "text", p["type"])
	text := p["text"].(map[string]any)
	assert.Equal(t, "Hola", text["body"])
}

func TestSendEmptyKindDefaultsToText(t *testing.T) {
	c, captured, _ := newCapturingClient(t, http.StatusOK)

	require.NoError(t, c.Send("1", "oi", "", ""))
	assert.Equal(t, "text", (*captured)["type"])
}

func TestSendButtons(t *testing.T) {
	c, captured, _ := newCapturingClient(t, http.StatusOK)

	err := c.Send("1", "Elige una opción", "boton", "Barra, Mesón recto, Mesón en L")
	require.NoError(t, err)

	p := *captured
	assert.Equal(t, "interactive", p["type"])
	inter := p["interactive"].(map[string]any)
	assert.Equal(t, "button", inter["type"])

	action := inter["action"].(map[string]any)
	buttons := action["buttons"].([]any)
	require.Len(t, buttons, 3)

	first := buttons[0].(map[string]any)
	reply := first["reply"].(map[string]any)
	assert.Equal(t, "btn_1", reply["id"])
	assert.Equal(t, "Barra", reply["title"])
}

func TestSendButtonTitleTruncated(t *testing.T) {
	c, captured, _ := newCapturingClient(t, http.StatusOK)

	long := strings.Repeat("a", 30)
	require.NoError(t, c.Send("1", "x", "boton", long))

	inter := (*captured)["interactive"].(map[string]any)
	buttons := inter["action"].(map[string]any)["buttons"].([]any)
	title := buttons[0].(map[string]any)["reply"].(map[string]any)["title"].(string)
	assert.Len(t, title, buttonTitleLimit)
}

func TestSendList(t *testing.T) {
	c, captured, _ := newCapturingClient(t, http.StatusOK)

	err := c.Send("1", "Opciones disponibles", "lista", "Cotizar, Hablar con asesor")
	require.NoError(t, err)

	inter := (*captured)["interactive"].(map[string]any)
	assert.Equal(t, "list", inter["type"])

	action := inter["action"].(map[string]any)
	assert.Equal(t, "Ver opciones", action["button"])

	sections := action["sections"].([]any)
	require.Len(t, sections, 1)
	rows := sections[0].(map[string]any)["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cotizar", rows[0].(map[string]any)["title"])
}

func TestSendImageWithCaption(t *testing.T) {
	c, captured, _ := newCapturingClient(t, http.StatusOK)

	err := c.Send("1", "mira la foto", "image", "https://cdn.example/foto.jpg")
	require.NoError(t, err)

	p := *captured
	assert.Equal(t, "image", p["type"])
	img := p["image"].(map[string]any)
	assert.Equal(t, "https://cdn.example/foto.jpg", img["link"])
	assert.Equal(t, "mira la foto", img["caption"])
}

func TestSendAudioHasNoCaption(t *testing.T) {
	c, captured, _ := newCapturingClient(t, http.StatusOK)

	require.NoError(t, c.Send("1", "ignorado", "audio", "https://cdn.example/nota.ogg"))

	audio := (*captured)["audio"].(map[string]any)
	assert.Equal(t, "https://cdn.example/nota.ogg", audio["link"])
	_, hasCaption := audio["caption"]
	assert.False(t, hasCaption)
}

func TestSendUnknownKind(t *testing.T) {
	c, _, _ := newCapturingClient(t, http.StatusOK)
	assert.Error(t, c.Send("1", "x", "carta_postal", ""))
}

func TestSendButtonsWithoutOptions(t *testing.T) {
	c, _, _ := newCapturingClient(t, http.StatusOK)
	assert.Error(t, c.Send("1", "x", "boton", "  ,  "))
}

func TestSendAPIErrorSurfaces(t *testing.T) {
	c, _, _ := newCapturingClient(t, http.StatusUnauthorized)

	err := c.Send("1", "hola", "texto", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendMissingCredentials(t *testing.T) {
	c := NewWhatsAppClient("", "", "v20.0")
	assert.Error(t, c.Send("1", "hola", "texto", ""))
}
