package store

import (
	"github.com/jinzhu/gorm"

	"chatflow/flow"
	"chatflow/models"
)

// Rules lê regras de automação do banco.
type Rules struct {
	db *gorm.DB
}

func NewRules(db *gorm.DB) *Rules {
	return &Rules{db: db}
}

// LookupStep devolve as regras do step com os anexos carregados, em ordem de
// id (a ordem de cadastro desempata curingas).
func (s *Rules) LookupStep(step string) ([]models.Rule, error) {
	var rules []models.Rule
	err := s.db.Preload("Medias").
		Where("step = ?", step).
		Order("id asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// LookupExact devolve a primeira regra do step cujo trigger (ou sinônimo,
// separado por vírgula) casa com o texto normalizado. O casamento de sinônimos
// acontece em memória porque o trigger do banco também precisa ser normalizado.
func (s *Rules) LookupExact(step, normalized string) (*models.Rule, error) {
	rules, err := s.LookupStep(step)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if flow.RuleMatches(&rules[i], normalized) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// All devolve todas as regras; usada na validação das calculadoras na subida.
func (s *Rules) All() ([]models.Rule, error) {
	var rules []models.Rule
	if err := s.db.Order("id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
