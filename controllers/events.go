package controllers

import (
	"io"
	"net/http"

	"chatflow/bus"

	"github.com/gin-gonic/gin"
)

var eventsBroadcaster *bus.Broadcaster

// SetupEvents injeta o broadcaster usado pelo stream SSE.
func SetupEvents(b *bus.Broadcaster) {
	eventsBroadcaster = b
}

// GET /api/events — stream SSE dos eventos internos (encerramento de sessão).
// O painel assina aqui para saber quando um atendimento expira.
func StreamEvents(c *gin.Context) {
	if eventsBroadcaster == nil {
		RespondError(c, "broadcaster não configurado", http.StatusInternalServerError)
		return
	}

	ch, cancel := eventsBroadcaster.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("message", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
