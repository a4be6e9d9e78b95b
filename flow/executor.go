package flow

import (
	"log"
	"strings"

	"chatflow/models"
)

// applyRule executa os efeitos de uma regra casada: etiqueta de papel, envio da
// resposta (e anexos), transição de step e avanço automático. sendResponse é
// false quando a resposta já saiu num turno anterior (regra pendente).
func (e *Engine) applyRule(contact string, rule *models.Rule, body string, sendResponse bool) {
	if rule.RoleTag != "" && e.deps.Roles != nil {
		if err := e.deps.Roles.Tag(contact, rule.RoleTag); err != nil {
			log.Printf("flow: erro ao etiquetar %s com %s: %v", contact, rule.RoleTag, err)
		}
	}

	if sendResponse {
		e.sendRule(contact, rule, body)
	}

	next := strings.TrimSpace(rule.NextStep)
	if err := e.deps.Sessions.Set(contact, next, models.SESSION_STATUS_AWAITING_USER); err != nil {
		log.Printf("flow: erro ao transicionar %s para %s: %v", contact, next, err)
		return
	}
	if err := e.deps.Sessions.SetPending(contact, nil); err != nil {
		log.Printf("flow: erro ao limpar pendência de %s: %v", contact, err)
	}

	e.autoAdvance(contact, next, sendResponse)
}

// applyCalculator trata o turno como medida para a regra calculadora. Entrada
// inválida responde a instrução de formato e mantém o contato no mesmo step,
// com a pendência intacta.
func (e *Engine) applyCalculator(contact string, rule *models.Rule, turn string) {
	m, err := ParseMeasure(turn)
	if err != nil {
		e.send(contact, ReplyInvalidMeasure, models.RULE_KIND_TEXT, "")
		return
	}
	total, err := Compute(rule, m)
	if err != nil {
		log.Printf("flow: erro ao calcular regra %d para %s: %v", rule.ID, contact, err)
		e.send(contact, ReplyInvalidMeasure, models.RULE_KIND_TEXT, "")
		return
	}
	e.applyRule(contact, rule, RenderCalc(rule.Response, m, total), true)
}

// autoAdvance marca como pendente a regra curinga quando ela é a única do step
// recém-entrado, e envia a resposta dela apenas se este turno ainda não enviou
// nada (evita mensagem dupla na mesma transição). Regras calculadoras nunca
// enviam o template cru aqui; a resposta sai computada no próximo turno.
func (e *Engine) autoAdvance(contact, step string, sentThisTurn bool) {
	if step == "" {
		return
	}
	rules, err := e.deps.Rules.LookupStep(step)
	if err != nil {
		log.Printf("flow: erro ao buscar regras do step %s: %v", step, err)
		return
	}
	if len(rules) != 1 || !rules[0].IsWildcard() {
		return
	}

	r := &rules[0]
	if err := e.deps.Sessions.SetPending(contact, &r.ID); err != nil {
		log.Printf("flow: erro ao marcar pendência de %s: %v", contact, err)
		return
	}
	if r.IsCalculator() {
		return
	}
	if !sentThisTurn {
		e.sendRule(contact, r, r.Response)
	}
}

/************************************************
/**** MARK: OUTBOUND ****/
/************************************************/

// sendRule envia a resposta principal da regra e, em seguida, os anexos extras
// como follow-ups sem corpo.
func (e *Engine) sendRule(contact string, rule *models.Rule, body string) {
	e.sendLogged(contact, &models.Message{
		Contact: contact,
		Body:    body,
		Origin:  models.MESSAGE_ORIGIN_BOT,
		Step:    rule.Step,
		RuleID:  &rule.ID,
	}, rule.Kind, rule.Options)

	for i := range rule.Medias {
		media := &rule.Medias[i]
		e.send(contact, "", media.Kind, media.MediaURL)
	}
}

func (e *Engine) send(contact, body, kind, options string) {
	e.sendLogged(contact, &models.Message{
		Contact: contact,
		Body:    body,
		Origin:  models.MESSAGE_ORIGIN_BOT,
	}, kind, options)
}

// sendLogged entrega pelo provedor e só então grava no histórico. Falha de
// envio é logada e o turno continua; não há rollback da transição.
func (e *Engine) sendLogged(contact string, m *models.Message, kind, options string) {
	if err := e.deps.Sender.Send(contact, m.Body, kind, options); err != nil {
		log.Printf("flow: erro ao enviar para %s: %v", contact, err)
		return
	}
	e.logMessage(m)
}

func (e *Engine) logMessage(m *models.Message) {
	if e.deps.Messages == nil {
		return
	}
	if err := e.deps.Messages.Append(m); err != nil {
		log.Printf("flow: erro ao gravar mensagem de %s: %v", m.Contact, err)
	}
}
