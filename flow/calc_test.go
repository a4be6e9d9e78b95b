package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatflow/models"
)

func TestParseMeasure(t *testing.T) {
	m, err := ParseMeasure("150")
	require.NoError(t, err)
	assert.Equal(t, 150, m.Medida())
	assert.Equal(t, 150, m.P1())
	assert.Equal(t, 0, m.P2())

	m, err = ParseMeasure("200 x 150")
	require.NoError(t, err)
	assert.Equal(t, 200, m.P1())
	assert.Equal(t, 150, m.P2())
	assert.Equal(t, 350, m.Medida())

	m, err = ParseMeasure("200X150")
	require.NoError(t, err)
	assert.Equal(t, 350, m.Medida())

	for _, bad := range []string{"abc", "", "200 x", "x 150", "1 x 2 x 3", "15.5"} {
		_, err := ParseMeasure(bad)
		assert.Error(t, err, "entrada %q", bad)
	}
}

func TestBuiltinHandlers(t *testing.T) {
	total, err := calcBarra(Measure{Values: []int{150}})
	require.NoError(t, err)
	assert.Equal(t, 255000, total)

	total, err = calcMesonRecto(Measure{Values: []int{150}})
	require.NoError(t, err)
	assert.Equal(t, 425000, total)

	total, err = calcMesonL(Measure{Values: []int{200, 150}})
	require.NoError(t, err)
	assert.Equal(t, 663000, total)

	_, err = calcMesonL(Measure{Values: []int{200}})
	assert.Error(t, err, "mesón en L exige duas medidas")
}

func TestComputeWithExpression(t *testing.T) {
	rule := &models.Rule{Calc: "(medida + 100) * 1700"}
	total, err := Compute(rule, Measure{Values: []int{150}})
	require.NoError(t, err)
	assert.Equal(t, 425000, total)

	rule = &models.Rule{Calc: "(p1 + p2 + 40) * 1700"}
	total, err = Compute(rule, Measure{Values: []int{200, 150}})
	require.NoError(t, err)
	assert.Equal(t, 663000, total)
}

func TestComputeUnknownHandler(t *testing.T) {
	rule := &models.Rule{Handler: "nao_existe"}
	_, err := Compute(rule, Measure{Values: []int{1}})
	assert.Error(t, err)
}

func TestEvalExpr(t *testing.T) {
	vars := map[string]int{"medida": 10, "p1": 3, "p2": 4}

	cases := map[string]int{
		"medida * 1700":    17000,
		"2 + 3 * 4":        14,
		"(2 + 3) * 4":      20,
		"p1 + p2":          7,
		"-medida + 12":     2,
		"100 / 3":          33,
		"medida - p1 - p2": 3,
	}
	for expr, want := range cases {
		got, err := EvalExpr(expr, vars)
		require.NoError(t, err, "expr %q", expr)
		assert.Equal(t, want, got, "expr %q", expr)
	}

	for _, bad := range []string{"", "medida +", "(1 + 2", "foo * 2", "1 / 0", "2 $ 3"} {
		_, err := EvalExpr(bad, vars)
		assert.Error(t, err, "expr %q", bad)
	}
}

func TestRenderCalc(t *testing.T) {
	out := RenderCalc("Total: {total} pesos por {medida} cms ({p1} x {p2})",
		Measure{Values: []int{200, 150}}, 663000)
	assert.Equal(t, "Total: 663000 pesos por 350 cms (200 x 150)", out)
}

func TestValidateRules(t *testing.T) {
	ok := []models.Rule{
		{ID: 1, Step: "a", Trigger: "x", Response: "r"},
		{ID: 2, Step: "b", Trigger: "*", Handler: "barra"},
		{ID: 3, Step: "c", Trigger: "*", Calc: "medida * 1700"},
	}
	assert.NoError(t, ValidateRules(ok))

	bad := []models.Rule{{ID: 4, Step: "d", Trigger: "*", Handler: "inventado"}}
	assert.Error(t, ValidateRules(bad))

	bad = []models.Rule{{ID: 5, Step: "e", Trigger: "*", Calc: "medida +"}}
	assert.Error(t, ValidateRules(bad))
}
