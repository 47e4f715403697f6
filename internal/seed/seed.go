// Package seed loads the club's official species rules into the catalogue.
package seed

import (
	"context"
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
)

//go:embed rules.yaml
var rulesYAML []byte

// Rule is the official scoring rule for one species.
type Rule struct {
	Name        string                   `yaml:"name"`
	MinLengthCM float64                  `yaml:"min_length_cm"`
	PointsPerCM float64                  `yaml:"points_per_cm"`
	Category    entities.SpeciesCategory `yaml:"category"`
}

// Result counts what Apply did.
type Result struct {
	Created int
	Updated int
}

// Rules returns the embedded official rules.
func Rules() ([]Rule, error) {
	return ParseRules(rulesYAML)
}

// ParseRules decodes and validates a rules document.
func ParseRules(data []byte) ([]Rule, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(err).
			Component("seed").
			Category(errors.CategoryFileParsing).
			Build()
	}

	seen := make(map[string]bool, len(doc.Rules))
	for i := range doc.Rules {
		r := &doc.Rules[i]
		r.Name = strings.TrimSpace(r.Name)
		switch {
		case r.Name == "":
			return nil, invalidRule(i, "missing name")
		case seen[r.Name]:
			return nil, invalidRule(i, "duplicate name "+r.Name)
		case r.MinLengthCM < 0 || r.PointsPerCM < 0:
			return nil, invalidRule(i, "negative length or multiplier")
		}
		switch r.Category {
		case entities.CategoryA, entities.CategoryB, entities.CategoryC:
		default:
			return nil, invalidRule(i, "unknown category "+string(r.Category))
		}
		seen[r.Name] = true
	}
	return doc.Rules, nil
}

func invalidRule(index int, reason string) error {
	return errors.Newf("invalid rule: %s", reason).
		Component("seed").
		Category(errors.CategoryValidation).
		Context("index", index).
		Build()
}

// Apply upserts each rule by species name. Existing species keep their slug and
// Wikipedia data; only the rule columns change. Running it twice is a no-op.
func Apply(ctx context.Context, repo datastore.SpeciesRepository, rules []Rule) (Result, error) {
	log := logger.Global().Module("seed")
	var res Result

	for _, rule := range rules {
		category := rule.Category

		species, err := repo.GetByName(ctx, rule.Name)
		switch {
		case errors.Is(err, datastore.ErrSpeciesNotFound):
			species = &entities.Species{
				Name:                 rule.Name,
				MinLengthCM:          rule.MinLengthCM,
				PointsPerCM:          rule.PointsPerCM,
				Category:             &category,
				IsCompetitionAllowed: true,
			}
			if err := repo.Create(ctx, species); err != nil {
				return res, err
			}
			res.Created++
			log.Debug("species created", logger.String("name", rule.Name), logger.String("slug", species.Slug))
			continue
		case err != nil:
			return res, err
		}

		if species.MinLengthCM == rule.MinLengthCM &&
			species.PointsPerCM == rule.PointsPerCM &&
			species.Category != nil && *species.Category == category {
			continue
		}

		// competition eligibility is an admin decision, only set on create
		species.MinLengthCM = rule.MinLengthCM
		species.PointsPerCM = rule.PointsPerCM
		species.Category = &category
		if err := repo.Save(ctx, species); err != nil {
			return res, err
		}
		res.Updated++
		log.Debug("species rule updated", logger.String("name", rule.Name))
	}

	log.Info("species rules applied",
		logger.Int("rules", len(rules)),
		logger.Int("created", res.Created),
		logger.Int("updated", res.Updated))
	return res, nil
}
