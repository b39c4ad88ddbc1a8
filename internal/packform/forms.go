package packform

import (
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/registry"
)

var (
	alias    = model.Alias
	word     = model.Word
	contains = model.Contains
	term     = model.Term
)

// DefaultEntries returns the pack-form rule table. Order is priority: the
// first category with a matching rule wins a Lookup. Alias rules are folded
// for case, so one spelling covers "caplet", "Caplet" and "CAPLET".
//
// Capsule, Tablet and Powder CJK names are terms: "胶囊" inside "软胶囊" or
// "咀嚼片" inside "钙咀嚼片" does not count. A bare "咀嚼片" embedded in a
// product name is a Gummy.
func DefaultEntries() []registry.Entry {
	return []registry.Entry{
		{Category: model.CategoryCapsule, Rules: []model.PatternRule{
			alias("capsule"), alias("capsules"), alias("cap"), alias("caps"), alias("capsu"),
			alias("gelcap"), alias("gelcaps"), alias("vegcap"),
			word(`capsules?`), word(`caps?`), word(`gelcaps?`),
			term("胶囊"), term("硬胶囊"), term("肠溶胶囊"), term("缓释胶囊"), term("控释胶囊"),
		}},
		{Category: model.CategoryTablet, Rules: []model.PatternRule{
			alias("tablet"), alias("tablets"), alias("tab"), alias("tabs"),
			alias("caplet"), alias("caplets"), alias("chewable"), alias("chewables"),
			alias("chew"), alias("chews"), alias("sublingual"), alias("enteric"),
			word(`tablets?`), word(`caplets?`), word(`tabs?`), word(`chewables?`),
			word(`sublingual`), word(`enteric`),
			term("片剂"), term("片"), term("咀嚼片"), term("含片"), term("舌下片"),
			term("肠溶片"), term("缓释片"), term("控释片"),
		}},
		{Category: model.CategoryPowder, Rules: []model.PatternRule{
			alias("powder"), alias("powders"), alias("powdered"), alias("granule"), alias("granules"),
			alias("crystal"), alias("crystals"), alias("pwd"),
			word(`powders?`), word(`pwd`), word(`granules?`), word(`drinks?`), word(`crystal`),
			term("粉剂"), term("粉末"), term("冲剂"), term("散剂"),
			term("颗粒剂"), term("冲饮"), term("饮品"),
		}},
		{Category: model.CategoryGummy, Rules: []model.PatternRule{
			alias("gummy"), alias("gummies"), alias("jelly"), alias("jellies"), alias("gumm"),
			word(`gummy`), word(`gummies`), word(`cand(?:y|ies)`), word(`jell(?:y|ies)`),
			contains("软糖"), contains("咀嚼糖"), contains("果冻"), contains("糖果"), contains("口香糖"),
			contains("咀嚼片"),
		}},
		{Category: model.CategoryDrop, Rules: []model.PatternRule{
			alias("drop"), alias("drops"), alias("tincture"), alias("tinctures"),
			alias("fl oz"), alias("fl. oz."),
			word(`drops?`), word(`tinctures?`), word(`essences?`), word(`fl ozs`),
			word(`liquid\s*drops?`),
			contains("滴剂"), contains("滴液"), contains("酊剂"), contains("精华"),
		}},
		{Category: model.CategorySoftgel, Rules: []model.PatternRule{
			alias("softgel"), alias("softgels"), alias("sof"), alias("gel"), alias("gels"),
			alias("软胶囊"),
			word(`softgels?`), word(`soft\s*gel`), word(`gels?`), word(`gelatin`),
			contains("软胶囊"), contains("软胶"), contains("明胶"),
		}},
		{Category: model.CategoryLiquid, Rules: []model.PatternRule{
			alias("liquid"), alias("liquids"), alias("syrup"), alias("syrups"),
			alias("solution"), alias("solutions"), alias("suspension"), alias("suspensions"),
			word(`liquids?`), word(`syrups?`), word(`suspensions?`), word(`elixir`),
			word(`solutions?`), word(`emulsion`),
			contains("液体"), contains("口服液"), contains("糖浆"), contains("混悬液"),
			contains("溶液"), contains("乳剂"), contains("水剂"),
		}},
		{Category: model.CategoryCream, Rules: []model.PatternRule{
			alias("cream"), alias("creams"), alias("ointment"), alias("ointments"),
			word(`creams?`), word(`ointments?`),
			contains("乳膏"), contains("霜剂"), contains("软膏"), contains("膏剂"),
		}},
		{Category: model.CategorySpray, Rules: []model.PatternRule{
			alias("spray"), alias("sprays"), alias("inhaler"), alias("inhalers"),
			word(`sprays?`), word(`inhalers?`),
			contains("喷雾"), contains("喷剂"), contains("吸入器"), contains("吸入剂"),
		}},
		{Category: model.CategoryLotion, Rules: []model.PatternRule{
			alias("lotion"), alias("lotions"),
			word(`lotions?`),
			contains("乳液"), contains("洗剂"),
		}},
		{Category: model.CategoryPatch, Rules: []model.PatternRule{
			alias("patch"), alias("patches"),
			word(`patch(?:es)?`),
			contains("贴剂"), contains("贴片"), contains("贴膏"),
		}},
		{Category: model.CategorySuppository, Rules: []model.PatternRule{
			alias("suppository"), alias("suppositories"),
			word(`suppositor(?:y|ies)`),
			contains("栓剂"), contains("坐药"),
		}},
		{Category: model.CategoryOil, Rules: []model.PatternRule{
			alias("oil"), alias("oils"), alias("essential oil"), alias("essential oils"),
			alias("fish oil"), alias("omega oil"), alias("carrier oil"), alias("carrier oils"),
			word(`oils?`), word(`essential\s*oils?`), word(`fish\s*oil`), word(`omega\s*oil`),
			word(`carrier\s*oils?`),
			contains("油"),
		}},
		// Others only standardizes explicit values; descriptions reach it
		// through OthersEntries.
		{Category: model.CategoryOthers, Rules: []model.PatternRule{
			alias("bag"), alias("bags"), alias("tea bags"), alias("teabag"), alias("teabags"),
			alias("strip"), alias("strips"), alias("stick"), alias("sticks"),
			alias("other"), alias("others"), alias("strippy"),
		}},
	}
}

// OthersEntries returns the sub-forms that place a description in Others.
// The category names are reported as match evidence.
func OthersEntries() []registry.Entry {
	return []registry.Entry{
		{Category: "Injection", Rules: []model.PatternRule{word(`injections?`), contains("注射剂"), contains("针剂")}},
		{Category: "Nasal", Rules: []model.PatternRule{word(`nasal`), contains("鼻用"), contains("鼻腔")}},
		{Category: "Topical", Rules: []model.PatternRule{word(`topical`), contains("外用"), contains("局部")}},
		{Category: "External", Rules: []model.PatternRule{word(`external`), contains("外用"), contains("外部")}},
		{Category: "Bag", Rules: []model.PatternRule{word(`bags?`), contains("袋装"), contains("包装")}},
		{Category: "Teabag", Rules: []model.PatternRule{word(`teabags?`), contains("茶包"), contains("袋泡茶")}},
		{Category: "Strip", Rules: []model.PatternRule{word(`strips?`), contains("条装"), contains("条剂")}},
		{Category: "Stick", Rules: []model.PatternRule{word(`sticks?`), contains("棒状"), contains("棒剂")}},
	}
}

// DefaultTieBreaks returns the declared resolutions for overlapping forms.
func DefaultTieBreaks() []registry.TieBreak {
	return []registry.TieBreak{
		{When: []model.Category{model.CategoryLiquid, model.CategoryDrop}, Winner: model.CategoryDrop},
	}
}
