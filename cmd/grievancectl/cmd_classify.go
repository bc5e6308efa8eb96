package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
	"github.com/grievance_desk/backend/internal/triage"
)

var classifyFlags struct {
	title       string
	description string
	category    string
	rules       string
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the triage result for a piece of text",
	Long:  "Runs the rule-based classifier without touching storage. Useful when editing a ruleset file.",
	RunE:  runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyFlags.title, "title", "", "Grievance title (required)")
	f.StringVar(&classifyFlags.description, "description", "", "Grievance description")
	f.StringVar(&classifyFlags.category, "category", string(models.CategoryOther), "Grievance category")
	f.StringVar(&classifyFlags.rules, "rules", "", "Ruleset YAML file (default: embedded)")

	_ = classifyCmd.MarkFlagRequired("title")
}

func runClassify(cmd *cobra.Command, _ []string) error {
	rules, err := triage.LoadRuleset(classifyFlags.rules)
	if err != nil {
		return err
	}
	res, err := triage.NewClassifier(rules).Classify(classifyFlags.title, classifyFlags.description, models.Category(classifyFlags.category))

	out := struct {
		Triage     models.TriageResult `json:"triage"`
		ReasonCode string              `json:"reason_code,omitempty"`
	}{Triage: res, ReasonCode: service.ReasonCode(err)}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
