package flow

// MatchKind classifica como um turno resolveu contra as regras do step atual.
type MatchKind int

const (
	// NoRule: nenhuma regra casou; responde o fallback fixo e não transiciona.
	NoRule MatchKind = iota
	// ExactRule: trigger exato (ou sinônimo) casou com o texto normalizado.
	ExactRule
	// WildcardDefault: regra curinga usada como resposta padrão do step.
	WildcardDefault
	// PendingInThread: regra curinga marcada como pendente no turno anterior;
	// qualquer texto a consome.
	PendingInThread
)

func (k MatchKind) String() string {
	switch k {
	case ExactRule:
		return "exact"
	case WildcardDefault:
		return "wildcard"
	case PendingInThread:
		return "pending"
	default:
		return "none"
	}
}

/************************************************
/**** MARK: FIXED REPLIES ****/
/************************************************/

const ReplyFallback = "Lo siento, no entendí tu respuesta. Por favor intenta nuevamente."
const ReplyInvalidMeasure = "Por favor ingresa la medida correctamente. Ej: 150 o 200 x 150"
const ReplyRestart = "Perfecto, volvamos a empezar."
const ReplySessionClosed = "Muchas gracias por comunicarte con nosotros. La sesión se dará por terminada por inactividad. ¡Te esperamos nuevamente por aquí!"
const ReplyImageReceived = "Imagen recibida correctamente."
const ReplyAudioReceived = "Audio recibido correctamente."
const ReplyVideoReceived = "Video recibido correctamente."

/************************************************
/**** MARK: INBOUND STATUS ****/
/************************************************/

const StatusDuplicate = "duplicate_ignored"
const StatusBuffered = "buffered"
const StatusMediaAck = "media_ack"
const StatusUnsupported = "unsupported_message_type"
