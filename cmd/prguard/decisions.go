package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prguard/prguard/internal/ledger"
	"github.com/prguard/prguard/internal/models"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Manage the decisions ledger used for regression checks",
}

var decisionsRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a deliberate decision from a merged PR",
	Long: `Records a decision (a removal, migration, refactor, or pattern
change) so future PRs that quietly undo it get flagged.`,
	RunE: runDecisionsRecord,
}

var decisionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent recorded decisions",
	RunE:  runDecisionsList,
}

func init() {
	decisionsRecordCmd.Flags().IntP("pr", "p", 0, "merged PR number")
	decisionsRecordCmd.Flags().String("title", "", "merged PR title")
	decisionsRecordCmd.Flags().String("author", "", "merged PR author")
	decisionsRecordCmd.Flags().String("type", "removal", "decision type: removal, addition, migration, refactor, pattern_change")
	decisionsRecordCmd.Flags().String("entity", "", "symbol or concept the decision is about")
	decisionsRecordCmd.Flags().String("file", "", "file path the decision applies to")
	decisionsRecordCmd.Flags().String("description", "", "why the decision was made")
	decisionsRecordCmd.MarkFlagRequired("pr")
	decisionsRecordCmd.MarkFlagRequired("entity")
	decisionsRecordCmd.MarkFlagRequired("description")

	decisionsListCmd.Flags().IntP("limit", "n", 20, "number of decisions to show")

	decisionsCmd.AddCommand(decisionsRecordCmd)
	decisionsCmd.AddCommand(decisionsListCmd)
}

func runDecisionsRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	prNumber, _ := cmd.Flags().GetInt("pr")
	title, _ := cmd.Flags().GetString("title")
	author, _ := cmd.Flags().GetString("author")
	decisionType, _ := cmd.Flags().GetString("type")
	entity, _ := cmd.Flags().GetString("entity")
	filePath, _ := cmd.Flags().GetString("file")
	description, _ := cmd.Flags().GetString("description")

	switch models.DecisionType(decisionType) {
	case models.DecisionRemoval, models.DecisionAddition, models.DecisionMigration,
		models.DecisionRefactor, models.DecisionPatternChange:
	default:
		return fmt.Errorf("unknown decision type %q", decisionType)
	}

	led, err := ledger.Open(cfg.Ledger.Path, cfg.DecisionsLogDepth, logger)
	if err != nil {
		return err
	}
	defer led.Close()

	now := time.Now().UTC()
	entry := models.DecisionsEntry{
		PRNumber: prNumber,
		Title:    title,
		MergedAt: now,
		Author:   author,
		Decisions: []models.Decision{{
			Type:        models.DecisionType(decisionType),
			Entity:      entity,
			FilePath:    filePath,
			Description: description,
			PRNumber:    prNumber,
			MergedAt:    now,
			Author:      author,
		}},
	}
	if err := led.RecordMerge(ctx, entry); err != nil {
		return err
	}

	fmt.Printf("✓ Recorded %s of %q from PR #%d\n", decisionType, entity, prNumber)
	return nil
}

func runDecisionsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	led, err := ledger.Open(cfg.Ledger.Path, cfg.DecisionsLogDepth, logger)
	if err != nil {
		return err
	}
	defer led.Close()

	decisions, err := led.RecentDecisions(ctx, limit)
	if err != nil {
		return err
	}
	if len(decisions) == 0 {
		fmt.Println("No decisions recorded yet.")
		return nil
	}

	for _, d := range decisions {
		file := d.FilePath
		if file == "" {
			file = "-"
		}
		fmt.Printf("PR #%-5d %-14s %-30s %-30s %s\n",
			d.PRNumber, d.Type, d.Entity, file, d.Description)
	}
	return nil
}
