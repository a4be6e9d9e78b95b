package flow

import "strings"

// Comandos globais reconhecidos em qualquer step. "menú" vira "menu" depois da
// normalização, então a lista guarda só as formas dobradas.
var globalCommands = [][]string{
	{"reiniciar"},
	{"volver", "al", "inicio"},
	{"inicio"},
	{"menu"},
	{"ayuda"},
}

// IsGlobalCommand informa se o texto normalizado contém algum comando global
// como sequência de palavras inteiras ("quiero el menu" casa; "menudo" não).
func IsGlobalCommand(normalized string) bool {
	words := strings.Fields(normalized)
	for _, cmd := range globalCommands {
		if containsPhrase(words, cmd) {
			return true
		}
	}
	return false
}

func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(words) < len(phrase) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
