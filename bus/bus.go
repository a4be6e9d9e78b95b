package bus

import (
	"sync"
	"time"
)

/************************************************
/**** MARK: EVENT TYPES ****/
/************************************************/

const EVENT_SESSION_CLOSED = "session_closed"

// Event é um aviso de fan-out interno (hoje só encerramento de sessão).
type Event struct {
	Type    string    `json:"type"`
	Contact string    `json:"contact,omitempty"`
	Origin  string    `json:"origin,omitempty"`
	At      time.Time `json:"at"`
}

// Broadcaster distribui eventos para todos os inscritos (stream SSE do
// painel). Publicar nunca bloqueia: inscrito com buffer cheio perde o evento.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func New() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe devolve o canal de eventos e a função de cancelamento. Sempre
// chame cancel ao desconectar; ela fecha o canal.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish entrega o evento a todos os inscritos, sem bloquear.
func (b *Broadcaster) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
}

// NotifySessionClosed satisfaz o Notifier do engine.
func (b *Broadcaster) NotifySessionClosed(contact, origin string) {
	b.Publish(Event{Type: EVENT_SESSION_CLOSED, Contact: contact, Origin: origin})
}

// Count devolve quantos inscritos ativos existem (exposto para testes).
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
