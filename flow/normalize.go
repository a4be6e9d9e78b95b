package flow

import (
	"strings"
	"unicode"

	"chatflow/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicaliza texto inbound: minúsculas, sem acentos e com
// whitespace colapsado ("  Menú " -> "menu"). Triggers de regras passam pela
// mesma dobra, então a comparação é estável dos dois lados.
func Normalize(s string) string {
	folded, _, err := transform.String(foldChain(), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// foldChain decompõe (NFD), remove marcas combinantes e recompõe (NFC).
// Transformers carregam estado, então cada chamada usa uma chain nova.
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// RuleMatches compara o texto normalizado do usuário com os sinônimos do
// trigger da regra, normalizando também o lado do banco. O curinga nunca casa
// aqui; ele é tratado na resolução do step.
func RuleMatches(r *models.Rule, normalized string) bool {
	if r.IsWildcard() {
		return false
	}
	for _, t := range r.Triggers() {
		if Normalize(t) == normalized {
			return true
		}
	}
	return false
}
