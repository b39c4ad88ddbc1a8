package insight

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
)

// BrandVolume is the search volume attributed to one brand.
type BrandVolume struct {
	Brand  string  `json:"brand"`
	Volume float64 `json:"volume"`
	Terms  int     `json:"terms"`
}

// Totals summarizes a tagged search report.
type Totals struct {
	Brands      []BrandVolume `json:"brands"`
	Branded     int           `json:"branded"`
	NonBranded  int           `json:"non_branded"`
	TotalVolume float64       `json:"total_volume"`
}

// Aggregate totals labeled rows. A term that names several brands counts
// its full volume toward each. Brands are ordered by volume, highest first.
func (c *Classifier) Aggregate(rows []model.LabeledRow) Totals {
	var t Totals
	byBrand := make(map[string]*BrandVolume)
	for _, lr := range rows {
		vol := 0.0
		if c.cols.Volume != "" {
			vol = Volume(lr.Row.Value(c.cols.Volume))
		}
		t.TotalVolume += vol
		if lr.Result.Primary != model.CategoryBranded {
			t.NonBranded++
			continue
		}
		t.Branded++
		for _, b := range lr.Result.Secondary {
			bv, ok := byBrand[b.String()]
			if !ok {
				bv = &BrandVolume{Brand: b.String()}
				byBrand[b.String()] = bv
			}
			bv.Volume += vol
			bv.Terms++
		}
	}

	t.Brands = make([]BrandVolume, 0, len(byBrand))
	for _, bv := range byBrand {
		t.Brands = append(t.Brands, *bv)
	}
	sort.Slice(t.Brands, func(i, j int) bool {
		if t.Brands[i].Volume != t.Brands[j].Volume {
			return t.Brands[i].Volume > t.Brands[j].Volume
		}
		return t.Brands[i].Brand < t.Brands[j].Brand
	})
	return t
}

// Volume parses a search-volume cell. Blank or unparsable values count as
// zero; thousands separators are ignored.
func Volume(v any) float64 {
	switch x := v.(type) {
	case float64:
		if normalize.IsBlank(x) {
			return 0
		}
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	s := strings.ReplaceAll(strings.TrimSpace(normalize.Text(v)), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
