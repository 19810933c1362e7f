package main

import (
	"context"

	"daily-meals/internal/logger"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

// initKnowledge teaches the catalog's NL2SQL layer the domain words used by
// the operators (Spanish service names, "sin información").
func initKnowledge(ctx context.Context, client *sdk.RawClient) error {
	knowledges := []sdk.NL2SQLKnowledgeCreateRequest{
		{Type: "glossary", Key: "reporte", Value: []string{"one row of reports: the meal counts one center submitted for one day"}},
		{Type: "glossary", Key: "centro", Value: []string{"a facility that serves meals, reports.center / users.center"}},
		{Type: "glossary", Key: "sin información", Value: []string{"a past day with no reports row for that center"}},

		{Type: "synonyms", Key: "desayuno/desayunos", Value: []string{"breakfast count"}, AssociateTables: []string{"reports,breakfast"}},
		{Type: "synonyms", Key: "almuerzo/almuerzos", Value: []string{"lunch count"}, AssociateTables: []string{"reports,lunch"}},
		{Type: "synonyms", Key: "cena/cenas", Value: []string{"dinner count"}, AssociateTables: []string{"reports,dinner"}},
		{Type: "synonyms", Key: "fecha/día", Value: []string{"report day"}, AssociateTables: []string{"reports,report_date"}},

		{Type: "logic", Key: "centers that did not report a day: users LEFT JOIN reports on email and report_date, keep rows where reports.id IS NULL, exclude center ADMIN", Value: []string{"missing report logic"}},
		{Type: "case_library", Key: "total de platos por centro este mes", Value: []string{"SELECT center, SUM(total) FROM reports WHERE report_date >= DATE_FORMAT(CURDATE(), '%Y-%m-01') GROUP BY center ORDER BY center"}},
	}

	for _, k := range knowledges {
		resp, err := client.CreateKnowledge(ctx, &k)
		if err != nil {
			if isDuplicate(err) {
				logger.Info("knowledge: already exists, skipping", "type", k.Type, "key", k.Key)
				continue
			}
			return err
		}
		logger.Info("knowledge: created", "type", k.Type, "key", k.Key, "id", resp.ID)
	}
	return nil
}
