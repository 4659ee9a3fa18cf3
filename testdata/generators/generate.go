package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Sample data generator for manual testing of the CLI: emits a record
// batch, a rule document, a draft batch, and a reference-data document
// that play together.
//
// Usage:
//   go run generate.go -count=500 -match-ratio=0.7 -output-dir=../generated

type merchant struct {
	token    string
	category string
	tags     []string
}

var merchants = []merchant{
	{"STARBUCKS", "Dining", []string{"coffee"}},
	{"PEETS COFFEE", "Dining", []string{"coffee"}},
	{"COSTCO WHOLESALE", "Groceries", []string{"groceries", "bulk"}},
	{"WHOLE FOODS", "Groceries", []string{"groceries"}},
	{"SHELL OIL", "Transport", []string{"fuel"}},
	{"UBER TRIP", "Transport", nil},
	{"NETFLIX.COM", "Subscriptions", []string{"streaming"}},
	{"TRANSFER TO SAVINGS", "", nil},
}

func main() {
	var (
		count      = flag.Int("count", 200, "number of transaction records to generate")
		matchRatio = flag.Float64("match-ratio", 0.8, "fraction of records that should match a rule (0.0-1.0)")
		outputDir  = flag.String("output-dir", "../generated", "output directory for generated files")
		seed       = flag.Int64("seed", 42, "random seed for reproducible output")
	)
	flag.Parse()

	if *matchRatio < 0 || *matchRatio > 1 {
		log.Fatalf("match-ratio must be between 0.0 and 1.0, got %f", *matchRatio)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := writeRecords(filepath.Join(*outputDir, "records.csv"), *count, *matchRatio, rng); err != nil {
		log.Fatalf("failed to write records: %v", err)
	}
	if err := writeRules(filepath.Join(*outputDir, "rules.json")); err != nil {
		log.Fatalf("failed to write rules: %v", err)
	}
	if err := writeDrafts(filepath.Join(*outputDir, "drafts.json")); err != nil {
		log.Fatalf("failed to write drafts: %v", err)
	}
	if err := writeReference(filepath.Join(*outputDir, "reference.json")); err != nil {
		log.Fatalf("failed to write reference data: %v", err)
	}

	fmt.Printf("Generated %d records plus rule, draft and reference documents in %s\n", *count, *outputDir)
}

func writeRecords(path string, count int, matchRatio float64, rng *rand.Rand) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"id", "description", "counterparty", "location", "tags", "amount", "bookedAt"}); err != nil {
		return err
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		var description, tags string
		if rng.Float64() < matchRatio {
			m := merchants[rng.Intn(len(merchants))]
			description = fmt.Sprintf("%s #%04d", m.token, rng.Intn(10000))
			if len(m.tags) > 0 {
				tags = m.tags[0]
			}
		} else {
			description = fmt.Sprintf("MISC PAYMENT %04d", rng.Intn(10000))
		}

		amount := strconv.FormatFloat(float64(rng.Intn(20000))/100, 'f', 2, 64)
		bookedAt := start.AddDate(0, 0, rng.Intn(90)).Format("2006-01-02")
		row := []string{
			fmt.Sprintf("tx_%06d", i+1),
			description,
			"",
			"",
			tags,
			amount,
			bookedAt,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

type conditionDoc struct {
	ID       string `json:"id"`
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type ruleDoc struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Priority      int            `json:"priority"`
	SetCategoryID string         `json:"setCategoryId,omitempty"`
	SkipImport    bool           `json:"skipImport,omitempty"`
	Conditions    []conditionDoc `json:"conditions"`
}

func writeRules(path string) error {
	rules := []ruleDoc{
		{
			ID: "r_coffee", Name: "Coffee", Priority: 10, SetCategoryID: "cat_dining",
			Conditions: []conditionDoc{
				{ID: "c1", Field: "description", Operator: "contains", Value: "STARBUCKS || PEETS"},
			},
		},
		{
			ID: "r_groceries", Name: "Groceries", Priority: 5, SetCategoryID: "cat_groceries",
			Conditions: []conditionDoc{
				{ID: "c1", Field: "description", Operator: "contains", Value: "COSTCO || WHOLE FOODS"},
			},
		},
		{
			ID: "r_transfers", Name: "Internal transfers", Priority: 100, SkipImport: true,
			Conditions: []conditionDoc{
				{ID: "c1", Field: "description", Operator: "starts_with", Value: "TRANSFER"},
			},
		},
	}
	return writeJSON(path, map[string]interface{}{"rules": rules})
}

type draftDoc struct {
	ruleDoc
	IsSelected            bool              `json:"isSelected"`
	MappingStatus         map[string]string `json:"mappingStatus,omitempty"`
	SuggestedCategoryName string            `json:"suggestedCategoryName,omitempty"`
}

func writeDrafts(path string) error {
	drafts := []draftDoc{
		{
			// Merges into r_coffee: same suggested category, new token.
			ruleDoc: ruleDoc{
				ID: "d1", Name: "Coffee", Priority: 10,
				Conditions: []conditionDoc{
					{ID: "c1", Field: "description", Operator: "contains", Value: "BLUE BOTTLE"},
				},
			},
			IsSelected:            true,
			MappingStatus:         map[string]string{"category": "match"},
			SuggestedCategoryName: "Dining",
		},
		{
			// Brand new rule with an entity to create.
			ruleDoc: ruleDoc{
				ID: "d2", Name: "Ride hailing", Priority: 8,
				Conditions: []conditionDoc{
					{ID: "c1", Field: "description", Operator: "contains", Value: "UBER || LYFT"},
				},
			},
			IsSelected:            true,
			MappingStatus:         map[string]string{"category": "create"},
			SuggestedCategoryName: "Transport",
		},
		{
			// Collides with r_groceries: same name, different category.
			ruleDoc: ruleDoc{
				ID: "d3", Name: "Groceries", Priority: 5,
				Conditions: []conditionDoc{
					{ID: "c1", Field: "description", Operator: "contains", Value: "TRADER JOE"},
				},
			},
			IsSelected:            true,
			MappingStatus:         map[string]string{"category": "create"},
			SuggestedCategoryName: "Household",
		},
	}
	return writeJSON(path, map[string]interface{}{"drafts": drafts})
}

func writeReference(path string) error {
	type entityDoc struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	doc := map[string]interface{}{
		"categories": []entityDoc{
			{ID: "cat_dining", Name: "Dining"},
			{ID: "cat_groceries", Name: "Groceries"},
			{ID: "cat_subscriptions", Name: "Subscriptions"},
		},
		"counterparties": []entityDoc{
			{ID: "cp_starbucks", Name: "Starbucks"},
			{ID: "cp_costco", Name: "Costco"},
		},
		"types": []entityDoc{
			{ID: "tt_expense", Name: "Expense"},
			{ID: "tt_transfer", Name: "Transfer"},
		},
	}
	return writeJSON(path, doc)
}

func writeJSON(path string, doc interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
