package flow

import (
	"log"
	"sync"
	"time"

	"chatflow/models"
)

/************************************************
/**** MARK: DEPENDENCIES ****/
/************************************************/

// RuleStore resolve regras de automação persistidas.
type RuleStore interface {
	// LookupExact devolve a primeira regra não-curinga do step cujo trigger
	// (ou sinônimo) casa com o texto normalizado; nil quando nenhuma casa.
	LookupExact(step, normalized string) (*models.Rule, error)
	// LookupStep devolve todas as regras do step, ordenadas por id.
	LookupStep(step string) ([]models.Rule, error)
}

// SessionStore persiste o estado de conversa por contato.
type SessionStore interface {
	Get(contact string) (*models.ChatSession, error)
	Set(contact, step, status string) error
	SetPending(contact string, ruleID *int64) error
	Clear(contact string) error
	Touch(contact string) error
	ListExpired(cutoff time.Time) ([]models.ChatSession, error)
}

// DedupStore registra ids de eventos do provedor. Register devolve true na
// primeira vez que vê o id.
type DedupStore interface {
	Register(eventID string) (bool, error)
}

// MessageStore grava o histórico de mensagens trocadas.
type MessageStore interface {
	Append(m *models.Message) error
}

// RoleStore etiqueta contatos com papéis; keyword desconhecida é no-op.
type RoleStore interface {
	Tag(contact, keyword string) error
}

// Sender envia uma mensagem outbound pelo provedor.
type Sender interface {
	Send(to, body, kind, options string) error
}

// Notifier recebe avisos de encerramento de sessão (painel, SSE, etc).
type Notifier interface {
	NotifySessionClosed(contact, origin string)
}

/************************************************
/**** MARK: ENGINE ****/
/************************************************/

// Config reúne os parâmetros de comportamento do engine.
type Config struct {
	EntryStep      string
	EntryTrigger   string
	DebounceWindow time.Duration
	SessionTimeout time.Duration
}

// Deps reúne os colaboradores do engine. Messages, Roles e Notifier podem ser
// nil (viram no-op).
type Deps struct {
	Rules    RuleStore
	Sessions SessionStore
	Dedup    DedupStore
	Messages MessageStore
	Roles    RoleStore
	Sender   Sender
	Notifier Notifier
}

// Engine orquestra a conversa: dedup, debounce, comandos globais, timeout de
// sessão e a resolução de regras do step atual. Turnos de um mesmo contato são
// serializados por um mutex por remetente; contatos distintos andam em paralelo.
type Engine struct {
	cfg  Config
	deps Deps

	debounce *Debouncer

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

func New(cfg Config, deps Deps) *Engine {
	e := &Engine{
		cfg:   cfg,
		deps:  deps,
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
	e.debounce = NewDebouncer(cfg.DebounceWindow, e.DispatchTurn)
	return e
}

func (e *Engine) contactLock(contact string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lk, ok := e.locks[contact]
	if !ok {
		lk = &sync.Mutex{}
		e.locks[contact] = lk
	}
	return lk
}

/************************************************
/**** MARK: INBOUND ****/
/************************************************/

// Inbound é uma mensagem recebida do webhook, já extraída do payload.
type Inbound struct {
	EventID  string
	From     string
	Kind     string
	Text     string
	MediaID  string
	MimeType string
}

const (
	INBOUND_KIND_TEXT        = "text"
	INBOUND_KIND_INTERACTIVE = "interactive"
	INBOUND_KIND_IMAGE       = "image"
	INBOUND_KIND_AUDIO       = "audio"
	INBOUND_KIND_VIDEO       = "video"
)

// HandleInbound faz a admissão de uma mensagem: dedup por event id, ack
// imediato de mídia e buffer com debounce para texto. Devolve um status curto
// para log do controller.
func (e *Engine) HandleInbound(in Inbound) (string, error) {
	fresh, err := e.deps.Dedup.Register(in.EventID)
	if err != nil {
		return "", err
	}
	if !fresh {
		return StatusDuplicate, nil
	}

	switch in.Kind {
	case INBOUND_KIND_IMAGE:
		return e.ackMedia(in, models.MESSAGE_ORIGIN_CLIENT_IMAGE, ReplyImageReceived)
	case INBOUND_KIND_AUDIO:
		return e.ackMedia(in, models.MESSAGE_ORIGIN_CLIENT_AUDIO, ReplyAudioReceived)
	case INBOUND_KIND_VIDEO:
		return e.ackMedia(in, models.MESSAGE_ORIGIN_CLIENT_VIDEO, ReplyVideoReceived)
	case INBOUND_KIND_TEXT, INBOUND_KIND_INTERACTIVE:
		e.logMessage(&models.Message{
			Contact: in.From,
			Body:    in.Text,
			Origin:  models.MESSAGE_ORIGIN_CLIENT,
		})
		e.debounce.Add(in.From, in.Text)
		return StatusBuffered, nil
	default:
		log.Printf("flow: tipo de mensagem não suportado de %s: %s", in.From, in.Kind)
		return StatusUnsupported, nil
	}
}

func (e *Engine) ackMedia(in Inbound, origin, ack string) (string, error) {
	e.logMessage(&models.Message{
		Contact:  in.From,
		Origin:   origin,
		MediaID:  in.MediaID,
		MimeType: in.MimeType,
	})
	e.send(in.From, ack, models.RULE_KIND_TEXT, "")
	return StatusMediaAck, nil
}

/************************************************
/**** MARK: TURN DISPATCH ****/
/************************************************/

// DispatchTurn processa um turno coalescido de um contato. É o flush do
// debouncer, mas também pode ser chamado direto (testes, replays).
func (e *Engine) DispatchTurn(contact, turn string) {
	lk := e.contactLock(contact)
	lk.Lock()
	defer lk.Unlock()

	sess, err := e.deps.Sessions.Get(contact)
	if err != nil {
		log.Printf("flow: erro ao carregar sessão de %s: %v", contact, err)
		return
	}

	step := ""
	if sess != nil {
		step = sess.CurrentStep
	}

	// Timeout checado na admissão: a sessão velha encerra (com despedida e
	// notificação) e o turno segue como conversa nova.
	if sess != nil && step != "" && e.now().Sub(sess.LastActivity) > e.cfg.SessionTimeout {
		e.closeSession(contact, "timeout", true)
		step = ""
	}

	// Toda interação renova a atividade, mesmo quando nada casa.
	defer func() {
		if err := e.deps.Sessions.Touch(contact); err != nil {
			log.Printf("flow: erro ao tocar sessão de %s: %v", contact, err)
		}
	}()

	if IsGlobalCommand(Normalize(turn)) {
		e.send(contact, ReplyRestart, models.RULE_KIND_TEXT, "")
		e.startFlow(contact)
		return
	}

	if step == "" {
		e.startFlow(contact)
		return
	}

	e.resolveTurn(contact, sess, step, turn)
}

// startFlow posiciona o contato no step de entrada e executa a regra inicial.
func (e *Engine) startFlow(contact string) {
	if err := e.deps.Sessions.Set(contact, e.cfg.EntryStep, models.SESSION_STATUS_AWAITING_USER); err != nil {
		log.Printf("flow: erro ao iniciar sessão de %s: %v", contact, err)
		return
	}
	entry, err := e.deps.Rules.LookupExact(e.cfg.EntryStep, Normalize(e.cfg.EntryTrigger))
	if err != nil {
		log.Printf("flow: erro ao buscar regra de entrada: %v", err)
		return
	}
	if entry == nil {
		log.Printf("flow: regra de entrada (%s, %s) não cadastrada", e.cfg.EntryStep, e.cfg.EntryTrigger)
		return
	}
	e.applyRule(contact, entry, entry.Response, true)
}

// resolveTurn aplica a precedência de casamento do step: pendente > exato >
// curinga > fallback.
func (e *Engine) resolveTurn(contact string, sess *models.ChatSession, step, turn string) {
	rules, err := e.deps.Rules.LookupStep(step)
	if err != nil {
		log.Printf("flow: erro ao buscar regras do step %s: %v", step, err)
		return
	}

	kind, rule := classify(sess, rules, Normalize(turn))
	switch kind {
	case PendingInThread:
		if rule.IsCalculator() {
			e.applyCalculator(contact, rule, turn)
			return
		}
		// resposta já foi enviada quando a regra ficou pendente
		e.applyRule(contact, rule, rule.Response, false)
	case ExactRule, WildcardDefault:
		if rule.IsCalculator() {
			e.applyCalculator(contact, rule, turn)
			return
		}
		e.applyRule(contact, rule, rule.Response, true)
	default:
		e.send(contact, ReplyFallback, models.RULE_KIND_TEXT, "")
	}
}

// classify decide qual regra (se alguma) atende o turno. Pendente órfã (regra
// sumiu do step) é descartada e o turno segue pelo caminho normal.
func classify(sess *models.ChatSession, rules []models.Rule, normalized string) (MatchKind, *models.Rule) {
	if sess != nil && sess.PendingRuleID != nil {
		for i := range rules {
			if rules[i].ID == *sess.PendingRuleID {
				return PendingInThread, &rules[i]
			}
		}
	}
	for i := range rules {
		if RuleMatches(&rules[i], normalized) {
			return ExactRule, &rules[i]
		}
	}
	for i := range rules {
		if rules[i].IsWildcard() {
			return WildcardDefault, &rules[i]
		}
	}
	return NoRule, nil
}

/************************************************
/**** MARK: SESSION LIFECYCLE ****/
/************************************************/

func (e *Engine) closeSession(contact, origin string, farewell bool) {
	if farewell {
		e.send(contact, ReplySessionClosed, models.RULE_KIND_TEXT, "")
	}
	if err := e.deps.Sessions.Clear(contact); err != nil {
		log.Printf("flow: erro ao encerrar sessão de %s: %v", contact, err)
		return
	}
	if e.deps.Notifier != nil {
		e.deps.Notifier.NotifySessionClosed(contact, origin)
	}
}

// CloseExpiredSessions varre sessões ociosas e as encerra. Devolve quantas
// fechou; roda periodicamente no worker de expiração.
func (e *Engine) CloseExpiredSessions() int {
	cutoff := e.now().Add(-e.cfg.SessionTimeout)
	expired, err := e.deps.Sessions.ListExpired(cutoff)
	if err != nil {
		log.Printf("flow: erro ao listar sessões expiradas: %v", err)
		return 0
	}

	closed := 0
	for i := range expired {
		contact := expired[i].Contact
		lk := e.contactLock(contact)
		lk.Lock()
		// reconfere sob o lock: o contato pode ter falado nesse meio tempo
		sess, err := e.deps.Sessions.Get(contact)
		if err == nil && sess != nil && sess.CurrentStep != "" && sess.LastActivity.Before(cutoff) {
			e.closeSession(contact, "timeout", true)
			closed++
		}
		lk.Unlock()
	}
	return closed
}
