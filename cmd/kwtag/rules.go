package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/kwtag/internal/cli"
	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/keyword"
	"github.com/Veraticus/kwtag/internal/packform"
	"github.com/Veraticus/kwtag/internal/registry"
)

// ruleTable is the printable form of a registry.
type ruleTable struct {
	Name      string       `yaml:"name"`
	Fallback  string       `yaml:"fallback"`
	Entries   []ruleEntry  `yaml:"entries"`
	TieBreaks []ruleWinner `yaml:"tie_breaks,omitempty"`
}

type ruleEntry struct {
	Category string   `yaml:"category"`
	Rules    []string `yaml:"rules"`
}

type ruleWinner struct {
	Winner string   `yaml:"winner"`
	When   []string `yaml:"when"`
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the built-in rule tables and profiles",
		Long: `Print a rule table in evaluation order.

Rules are shown as =alias for exact values, /\bword\b/ for word-boundary
patterns, <text> for terms that must stand apart from neighbouring letters
and *text* for substrings. The profiles table lists the keyword tagging
profiles after configuration overrides.`,
		RunE: runRules,
	}

	cmd.Flags().String("registry", "packform", "table to print (packform, others, profiles)")
	cmd.Flags().String("output", "text", "output format (text, yaml)")

	return cmd
}

func runRules(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("registry")
	format, _ := cmd.Flags().GetString("output")
	if format != "text" && format != "yaml" {
		return common.NewUserError("Unknown output format "+format, common.ErrInvalidConfig)
	}
	w := cmd.OutOrStdout()

	if name == "profiles" {
		return printProfiles(w, format)
	}

	var (
		reg *registry.Registry
		err error
	)
	switch name {
	case "packform":
		reg, err = registry.New(packform.DefaultEntries(), registry.Options{TieBreaks: packform.DefaultTieBreaks()})
	case "others":
		reg, err = registry.New(packform.OthersEntries(), registry.Options{})
	default:
		return common.NewUserError("Unknown rule table "+name+" (available: packform, others, profiles)", common.ErrInvalidConfig)
	}
	if err != nil {
		return err
	}

	table := describeRegistry(name, reg)
	if format == "yaml" {
		return writeYAML(w, table)
	}

	rows := make([][]string, 0, len(table.Entries))
	for _, e := range table.Entries {
		rows = append(rows, []string{e.Category, strings.Join(e.Rules, "  ")})
	}
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("%s rules (%d aliases)", name, reg.AliasCount())))
	fmt.Fprintln(w, cli.RenderTable([]string{"Category", "Rules"}, rows))
	for _, tb := range table.TieBreaks {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("%s wins when %s all match", tb.Winner, strings.Join(tb.When, " and "))))
	}
	fmt.Fprintln(w, cli.FormatInfo("Nothing matched: "+table.Fallback))
	return nil
}

func describeRegistry(name string, reg *registry.Registry) ruleTable {
	table := ruleTable{Name: name, Fallback: reg.Fallback().String()}
	for _, e := range reg.Entries() {
		entry := ruleEntry{Category: e.Category.String()}
		for _, r := range e.Rules {
			entry.Rules = append(entry.Rules, r.String())
		}
		table.Entries = append(table.Entries, entry)
	}
	for _, tb := range reg.TieBreaks() {
		winner := ruleWinner{Winner: tb.Winner.String()}
		for _, c := range tb.When {
			winner.When = append(winner.When, c.String())
		}
		table.TieBreaks = append(table.TieBreaks, winner)
	}
	return table
}

func printProfiles(w io.Writer, format string) error {
	names := appConfig.ProfileNames()
	if format == "yaml" {
		out := make(map[string]keyword.Profile, len(names))
		for _, n := range names {
			out[n] = appConfig.Profiles[n]
		}
		return writeYAML(w, out)
	}

	rows := make([][]string, 0, len(names))
	for _, n := range names {
		p := appConfig.Profiles[n]
		campaign := p.CampaignColumn
		if campaign == "" {
			campaign = "-"
		}
		rows = append(rows, []string{
			n,
			p.QueryColumn,
			campaign,
			p.Fallback.String(),
			strings.Join(p.BrandTokens, ", "),
			fmt.Sprint(p.Competitors),
		})
	}
	fmt.Fprintln(w, cli.FormatTitle("Tagging profiles"))
	fmt.Fprintln(w, cli.RenderTable([]string{"Profile", "Query", "Campaign", "Fallback", "Brand tokens", "Competitors"}, rows))
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
