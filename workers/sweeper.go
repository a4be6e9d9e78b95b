package workers

import (
	"log"
	"time"

	"chatflow/flow"
)

// StartSessionSweeper dispara a varredura periódica de sessões ociosas. O
// engine faz a reconferência sob o lock do contato, então a varredura pode
// rodar com o tráfego ao vivo sem fechar sessão que acabou de falar.
func StartSessionSweeper(e *flow.Engine, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if n := e.CloseExpiredSessions(); n > 0 {
				log.Printf("sweeper: %d sessão(ões) encerrada(s) por inatividade", n)
			}
		}
	}()
}
