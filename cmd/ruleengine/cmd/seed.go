package cmd

import (
	"context"
	"fmt"
	"os"

	"rule-reconciliation-service/cmd/ruleengine/config"
	"rule-reconciliation-service/internal/models"
	"rule-reconciliation-service/internal/parsers"
	"rule-reconciliation-service/internal/storage"
	"rule-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the seed command
var (
	seedRulesFile     string
	seedReferenceFile string
	seedDBPath        string
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load rules and reference data into the rule database",
	Long: `Seed populates the rule database from exported JSON documents: a rule
document, a reference-data document (categories, counterparties, locations
and transaction types), or both.

Rules and transaction types are upserted, so re-seeding them is safe.
Entity collections are insert-only; seed them into a fresh database.

Examples:
  ruleengine seed --rules rules.json --reference reference.json --db rules.db
  ruleengine seed --reference reference.json`,

	PreRunE: validateSeedFlags,
	RunE:    runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedRulesFile, "rules", "", "path to rule document JSON file")
	seedCmd.Flags().StringVar(&seedReferenceFile, "reference", "", "path to reference-data JSON file")
	seedCmd.Flags().StringVar(&seedDBPath, "db", "", "path to the rule database (default: ruleengine.db)")

	viper.BindPFlag("seed.rules", seedCmd.Flags().Lookup("rules"))
	viper.BindPFlag("seed.reference", seedCmd.Flags().Lookup("reference"))
	viper.BindPFlag("seed.db", seedCmd.Flags().Lookup("db"))
}

func validateSeedFlags(cmd *cobra.Command, args []string) error {
	if seedRulesFile == "" && seedReferenceFile == "" {
		return fmt.Errorf("at least one of --rules or --reference is required")
	}
	if seedRulesFile != "" {
		if err := validateFileExists(seedRulesFile, "rule document"); err != nil {
			return err
		}
	}
	if seedReferenceFile != "" {
		if err := validateFileExists(seedReferenceFile, "reference-data document"); err != nil {
			return err
		}
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger()

	dbPath := config.ResolveDatabasePath(seedDBPath)
	store, err := storage.Open(dbPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var seededEntities, seededTypes, seededRules int

	if seedReferenceFile != "" {
		data, err := parsers.LoadReferenceData(seedReferenceFile)
		if err != nil {
			return err
		}

		for _, kind := range models.AllEntityKinds() {
			entities := data.Entities(kind)
			if len(entities) == 0 {
				continue
			}
			if err := store.CreateEntities(ctx, kind, entities); err != nil {
				return err
			}
			seededEntities += len(entities)
		}

		for _, t := range data.Types {
			if err := store.UpsertTransactionType(ctx, t); err != nil {
				return err
			}
			seededTypes++
		}
	}

	if seedRulesFile != "" {
		rules, err := parsers.LoadRules(seedRulesFile)
		if err != nil {
			return err
		}
		for _, rule := range rules {
			if validationErr := rule.Validate(); validationErr != nil {
				return validationErr
			}
			if err := store.UpsertRule(ctx, rule); err != nil {
				return err
			}
			seededRules++
		}
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Seeded %d entities, %d transaction types, %d rules into %s.\n",
			seededEntities, seededTypes, seededRules, dbPath)
	}
	return nil
}
