package flow

import (
	"strings"
	"sync"
	"time"
)

// FlushFunc recebe o turno coalescido de um contato após a janela de silêncio.
type FlushFunc func(contact, turn string)

// Debouncer agrega mensagens rápidas de um mesmo contato. Cada mensagem nova
// cancela o timer vivo e agenda outro, então uma rajada de N mensagens produz
// exatamente um flush, disparado uma janela após a última.
//
// O campo gen protege contra o timer antigo disparar concorrente ao Stop: o
// callback valida a geração antes de consumir o buffer, garantindo fire
// exactly-once por rajada.
type Debouncer struct {
	window time.Duration
	flush  FlushFunc

	mu      sync.Mutex
	entries map[string]*bufferEntry
}

type bufferEntry struct {
	texts []string
	timer *time.Timer
	gen   int
}

func NewDebouncer(window time.Duration, flush FlushFunc) *Debouncer {
	return &Debouncer{
		window:  window,
		flush:   flush,
		entries: make(map[string]*bufferEntry),
	}
}

// Add guarda o texto no buffer do contato e (re)agenda o flush.
func (d *Debouncer) Add(contact, text string) {
	d.mu.Lock()
	e, ok := d.entries[contact]
	if !ok {
		e = &bufferEntry{}
		d.entries[contact] = e
	}
	e.texts = append(e.texts, text)
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
	}
	gen := e.gen
	e.timer = time.AfterFunc(d.window, func() { d.fire(contact, gen) })
	d.mu.Unlock()
}

// Flush dispara imediatamente o buffer do contato, se houver (usado em testes
// e no shutdown).
func (d *Debouncer) Flush(contact string) {
	d.mu.Lock()
	e, ok := d.entries[contact]
	if !ok {
		d.mu.Unlock()
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	gen := e.gen
	d.mu.Unlock()
	d.fire(contact, gen)
}

func (d *Debouncer) fire(contact string, gen int) {
	d.mu.Lock()
	e, ok := d.entries[contact]
	if !ok || e.gen != gen {
		// um Add mais novo assumiu o buffer; este timer é obsoleto
		d.mu.Unlock()
		return
	}
	texts := e.texts
	delete(d.entries, contact)
	d.mu.Unlock()

	turn := coalesce(texts)
	if turn == "" {
		return
	}
	d.flush(contact, turn)
}

// coalesce junta os textos não vazios na ordem de chegada com um único espaço.
func coalesce(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
