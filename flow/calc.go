package flow

import (
	"fmt"
	"strconv"
	"strings"

	"chatflow/models"
)

/************************************************
/**** MARK: MEASURE INPUT ****/
/************************************************/

// Measure é a entrada numérica de uma regra calculadora: "150" ou "200 x 150".
type Measure struct {
	Values []int
}

func (m Measure) P1() int {
	if len(m.Values) > 0 {
		return m.Values[0]
	}
	return 0
}

func (m Measure) P2() int {
	if len(m.Values) > 1 {
		return m.Values[1]
	}
	return 0
}

// Medida é a soma das partes; para entrada simples é o próprio valor.
func (m Measure) Medida() int {
	total := 0
	for _, v := range m.Values {
		total += v
	}
	return total
}

// ParseMeasure interpreta a medida digitada: um inteiro ou um par separado por
// "x" (com ou sem espaços). Qualquer outra coisa é erro.
func ParseMeasure(text string) (Measure, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Measure{}, fmt.Errorf("medida vazia")
	}
	parts := strings.Split(s, "x")
	if len(parts) > 2 {
		return Measure{}, fmt.Errorf("medida inválida: %q", text)
	}
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Measure{}, fmt.Errorf("medida inválida: %q", text)
		}
		values = append(values, n)
	}
	return Measure{Values: values}, nil
}

/************************************************
/**** MARK: HANDLERS ****/
/************************************************/

// CalcHandler calcula o total em pesos a partir da medida digitada.
type CalcHandler func(Measure) (int, error)

var calcHandlers = map[string]CalcHandler{
	"barra":       calcBarra,
	"meson_recto": calcMesonRecto,
	"meson_l":     calcMesonL,
}

// RegisterHandler disponibiliza um handler nomeado para regras calculadoras.
// Deve ser chamado antes do engine subir.
func RegisterHandler(name string, fn CalcHandler) {
	calcHandlers[name] = fn
}

func calcBarra(m Measure) (int, error) {
	return m.Medida() * 1700, nil
}

func calcMesonRecto(m Measure) (int, error) {
	return (m.Medida() + 100) * 1700, nil
}

func calcMesonL(m Measure) (int, error) {
	if len(m.Values) != 2 {
		return 0, fmt.Errorf("mesón en L precisa de dos medidas (ej: 200 x 150)")
	}
	return (m.P1() + m.P2() + 40) * 1700, nil
}

/************************************************
/**** MARK: EVALUATION ****/
/************************************************/

// Compute resolve o total de uma regra calculadora: handler registrado quando
// Handler está setado, senão a expressão em Calc com as variáveis medida/p1/p2.
func Compute(rule *models.Rule, m Measure) (int, error) {
	if h := strings.TrimSpace(rule.Handler); h != "" {
		fn, ok := calcHandlers[h]
		if !ok {
			return 0, fmt.Errorf("handler desconhecido: %q", h)
		}
		return fn(m)
	}
	vars := map[string]int{"medida": m.Medida(), "p1": m.P1(), "p2": m.P2()}
	return EvalExpr(rule.Calc, vars)
}

// RenderCalc substitui os placeholders do template da resposta pelos valores
// calculados. Totais saem sem separador de milhar.
func RenderCalc(template string, m Measure, total int) string {
	r := strings.NewReplacer(
		"{medida}", strconv.Itoa(m.Medida()),
		"{p1}", strconv.Itoa(m.P1()),
		"{p2}", strconv.Itoa(m.P2()),
		"{total}", strconv.Itoa(total),
	)
	return r.Replace(template)
}

// ValidateRules confere na subida que toda regra calculadora é executável:
// handler existente ou expressão que avalia com variáveis dummy.
func ValidateRules(rules []models.Rule) error {
	dummy := Measure{Values: []int{1, 1}}
	for i := range rules {
		r := &rules[i]
		if !r.IsCalculator() {
			continue
		}
		if _, err := Compute(r, dummy); err != nil {
			return fmt.Errorf("regra %d (step %s): %v", r.ID, r.Step, err)
		}
	}
	return nil
}

/************************************************
/**** MARK: EXPRESSION PARSER ****/
/************************************************/

// EvalExpr avalia uma expressão aritmética inteira com + - * /, parênteses e
// as variáveis fornecidas. Divisão é inteira; divisão por zero é erro.
func EvalExpr(expr string, vars map[string]int) (int, error) {
	p := &exprParser{src: expr, vars: vars}
	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("expressão inválida perto de %q", p.src[p.pos:])
	}
	return v, nil
}

type exprParser struct {
	src  string
	pos  int
	vars map[string]int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseSum() (int, error) {
	v, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseProduct() (int, error) {
	v, err := p.parseAtom()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.parseAtom()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			p.pos++
			r, err := p.parseAtom()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, fmt.Errorf("divisão por zero")
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseAtom() (int, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("parêntese não fechado")
		}
		p.pos++
		return v, nil
	case c == '-':
		p.pos++
		v, err := p.parseAtom()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		return strconv.Atoi(p.src[start:p.pos])
	case isIdentByte(c):
		start := p.pos
		// depois do primeiro byte, dígitos também valem (p1, p2)
		for p.pos < len(p.src) && (isIdentByte(p.src[p.pos]) || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
			p.pos++
		}
		name := p.src[start:p.pos]
		v, ok := p.vars[name]
		if !ok {
			return 0, fmt.Errorf("variável desconhecida: %q", name)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("expressão inválida na posição %d", p.pos)
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
