package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteRuleResults outputs the rule listing, dispatching based on the output format configured.
func WriteRuleResults(infos []schema.RuleInfo, cfg *contract.Config) error {
	return render(cfg, renderers{
		json:       func(w io.Writer) error { return writeJSON(w, infos) },
		csv:        func(w io.Writer) error { return writeRuleCSV(w, infos) },
		prometheus: func(w io.Writer) error { return writeRulePrometheus(w, infos) },
		text:       func(w io.Writer) error { return writeRuleTable(w, infos, cfg) },
	})
}

func ruleState(disabled bool) string {
	if disabled {
		return "disabled"
	}
	return "enabled"
}

func writeRuleCSV(w io.Writer, infos []schema.RuleInfo) error {
	return writeCSVWithHeader(w, []string{"name", "kind", "disabled"}, func(cw *csv.Writer) error {
		for _, info := range infos {
			if err := cw.Write([]string{info.Name, info.Kind, strconv.FormatBool(info.Disabled)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeRuleTable(w io.Writer, infos []schema.RuleInfo, cfg *contract.Config) error {
	nameWidth := GetMaxTableNameWidth(cfg)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Kind", "State"})

	var data [][]string
	var disabled int
	for _, info := range infos {
		state := ruleState(info.Disabled)
		if info.Disabled {
			disabled++
			if cfg.UseColors {
				state = contract.FailColor.Sprint(state)
			}
		}
		data = append(data, []string{truncateName(info.Name, nameWidth), info.Kind, state})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d rules, %d disabled\n", len(infos), disabled)
	return err
}
