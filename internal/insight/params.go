package insight

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/kwtag/internal/common"
)

// ParamGroup is one named product parameter and the values it can take,
// e.g. 颜色 → 红, 蓝.
type ParamGroup struct {
	Name   string   `mapstructure:"name"`
	Values []string `mapstructure:"values"`
}

// listSep splits on ASCII and full-width commas.
var listSep = regexp.MustCompile(`[,\x{ff0c}]`)

// lineSep splits value groups on newlines or '|'.
var lineSep = regexp.MustCompile(`[\n|]`)

// ParseParams pairs a comma-separated list of parameter names with one value
// list per name. Value groups are separated by newlines or '|'. Both inputs
// empty yields no groups.
func ParseParams(names, values string) ([]ParamGroup, error) {
	nameList := splitList(names)
	var valueLists [][]string
	for _, line := range lineSep.Split(values, -1) {
		if vs := splitList(line); len(vs) > 0 {
			valueLists = append(valueLists, vs)
		}
	}
	if len(nameList) == 0 && len(valueLists) == 0 {
		return nil, nil
	}
	if len(nameList) != len(valueLists) {
		return nil, fmt.Errorf("%w: %d parameter names but %d value groups",
			common.ErrInvalidConfig, len(nameList), len(valueLists))
	}

	groups := make([]ParamGroup, len(nameList))
	for i, name := range nameList {
		groups[i] = ParamGroup{Name: name, Values: valueLists[i]}
	}
	return groups, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range listSep.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
