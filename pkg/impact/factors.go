// Package impact turns textile item descriptions into deterministic
// environmental savings metrics (CO2 kg, water L, resource-saving
// percent) using a static per-material factor table.
package impact

import (
	"sort"
	"strings"
)

// MaterialFactor holds the per-kilogram environmental savings of one
// material category.
//
// Values follow published textile LCA averages (Ellen MacArthur
// Foundation / WRAP Valuing Our Clothes, 2017 edition). To compute the
// savings of an item, multiply each factor by the item weight.
type MaterialFactor struct {
	Category              string  `json:"category"`
	CO2PerKg              float64 `json:"co2_per_kg"`
	WaterPerKg            float64 `json:"water_per_kg"`
	ResourceSavingPercent float64 `json:"resource_saving_percent"`
}

// DefaultCategory keys the fallback entry used whenever a material
// cannot be resolved. Missing data degrades to the default, it never
// blocks a submission.
const DefaultCategory = "default"

// factors is the Material Impact Table. Keys are normalized material
// names; aliases below fold Portuguese and English spellings onto the
// same entry. Read-only after init, safe for concurrent use.
var factors = map[string]MaterialFactor{
	"algodao":   {Category: "algodao", CO2PerKg: 2.5, WaterPerKg: 1500, ResourceSavingPercent: 85},
	"poliester": {Category: "poliester", CO2PerKg: 3.0, WaterPerKg: 100, ResourceSavingPercent: 70},
	"la":        {Category: "la", CO2PerKg: 5.4, WaterPerKg: 500, ResourceSavingPercent: 80},
	"linho":     {Category: "linho", CO2PerKg: 1.8, WaterPerKg: 650, ResourceSavingPercent: 82},
	"seda":      {Category: "seda", CO2PerKg: 7.6, WaterPerKg: 1000, ResourceSavingPercent: 78},
	"poliamida": {Category: "poliamida", CO2PerKg: 5.5, WaterPerKg: 180, ResourceSavingPercent: 68},
	"viscose":   {Category: "viscose", CO2PerKg: 2.2, WaterPerKg: 640, ResourceSavingPercent: 72},
	"elastano":  {Category: "elastano", CO2PerKg: 4.8, WaterPerKg: 120, ResourceSavingPercent: 65},
	"couro":     {Category: "couro", CO2PerKg: 17.0, WaterPerKg: 17000, ResourceSavingPercent: 88},
	"jeans":     {Category: "jeans", CO2PerKg: 3.3, WaterPerKg: 3800, ResourceSavingPercent: 86},

	DefaultCategory: {Category: DefaultCategory, CO2PerKg: 2.0, WaterPerKg: 800, ResourceSavingPercent: 60},
}

// aliases folds common spellings (accented Portuguese, English) onto
// the normalized table keys.
var aliases = map[string]string{
	"algodão":   "algodao",
	"cotton":    "algodao",
	"poliéster": "poliester",
	"polyester": "poliester",
	"lã":        "la",
	"wool":      "la",
	"linen":     "linho",
	"silk":      "seda",
	"nylon":     "poliamida",
	"polyamide": "poliamida",
	"rayon":     "viscose",
	"elastane":  "elastano",
	"spandex":   "elastano",
	"lycra":     "elastano",
	"leather":   "couro",
	"denim":     "jeans",
}

// categoryMaterials maps item types to a representative material, used
// as a last resort before the default entry when the material name
// itself resolves nothing.
var categoryMaterials = map[string]string{
	"camiseta":  "algodao",
	"t-shirt":   "algodao",
	"tshirt":    "algodao",
	"camisa":    "algodao",
	"shirt":     "algodao",
	"calca":     "jeans",
	"jeans":     "jeans",
	"vestido":   "viscose",
	"dress":     "viscose",
	"casaco":    "la",
	"coat":      "la",
	"sueter":    "la",
	"sweater":   "la",
	"jaqueta":   "poliester",
	"jacket":    "poliester",
	"sapato":    "couro",
	"shoes":     "couro",
	"cinto":     "couro",
	"belt":      "couro",
	"meia":      "poliamida",
	"socks":     "poliamida",
	"legging":   "elastano",
	"gravata":   "seda",
	"tie":       "seda",
	"toalha":    "algodao",
	"towel":     "algodao",
	"lencol":    "algodao",
	"bedsheet":  "algodao",
	"cortina":   "poliester",
	"curtain":   "poliester",
	"uniforme":  "poliester",
	"uniform":   "poliester",
	"cachecol":  "la",
	"scarf":     "la",
	"saia":      "viscose",
	"skirt":     "viscose",
	"bermuda":   "algodao",
	"shorts":    "algodao",
	"pijama":    "algodao",
	"pajamas":   "algodao",
	"bolsa":     "couro",
	"bag":       "couro",
	"chapeu":    "algodao",
	"hat":       "algodao",
	"luva":      "la",
	"gloves":    "la",
	"roupa-cama": "algodao",
}

// referenceKey identifies an enriched reference entry: an item type,
// material and origin country measured together.
type referenceKey struct {
	ItemType string
	Material string
	Country  string
}

// reference holds enriched factors for combinations where regional LCA
// data is better than the global material average. Consulted before
// the material-only table.
var reference = map[referenceKey]MaterialFactor{
	{ItemType: "camiseta", Material: "algodao", Country: "br"}: {Category: "algodao", CO2PerKg: 2.8, WaterPerKg: 1650, ResourceSavingPercent: 85},
	{ItemType: "t-shirt", Material: "algodao", Country: "br"}:  {Category: "algodao", CO2PerKg: 2.8, WaterPerKg: 1650, ResourceSavingPercent: 85},
	{ItemType: "jeans", Material: "jeans", Country: "br"}:      {Category: "jeans", CO2PerKg: 3.6, WaterPerKg: 4100, ResourceSavingPercent: 86},
	{ItemType: "camiseta", Material: "algodao", Country: "in"}: {Category: "algodao", CO2PerKg: 3.1, WaterPerKg: 2200, ResourceSavingPercent: 85},
	{ItemType: "t-shirt", Material: "poliester", Country: "cn"}: {Category: "poliester", CO2PerKg: 3.4, WaterPerKg: 130, ResourceSavingPercent: 70},
}

// aliasKeys and factorKeys fix the substring scan order. Map iteration
// is randomized, and a composite label matching two entries must still
// resolve to the same factor on every run.
var (
	aliasKeys  = sortedKeys(aliases)
	factorKeys = sortedFactorKeys()
)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFactorKeys() []string {
	keys := make([]string, 0, len(factors))
	for k := range factors {
		if k == DefaultCategory {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalize lowercases and trims a lookup key.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// resolveMaterial maps a raw material name onto a table key, using the
// alias map first and then a case-insensitive substring match. Returns
// false when nothing matches.
func resolveMaterial(material string) (string, bool) {
	name := normalize(material)
	if name == "" {
		return "", false
	}
	if _, ok := factors[name]; ok {
		return name, true
	}
	if key, ok := aliases[name]; ok {
		return key, true
	}
	for _, alias := range aliasKeys {
		if strings.Contains(name, alias) || strings.Contains(alias, name) {
			return aliases[alias], true
		}
	}
	for _, key := range factorKeys {
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return key, true
		}
	}
	return "", false
}

// Lookup resolves the factor for an item type, material and origin
// country. Resolution order: enriched reference entry (exact
// type+material+country), material-only table, item-type fallback,
// default. Lookup never fails.
func Lookup(itemType, material, country string) MaterialFactor {
	matKey, matOK := resolveMaterial(material)
	if matOK {
		key := referenceKey{
			ItemType: normalize(itemType),
			Material: matKey,
			Country:  normalize(country),
		}
		if factor, ok := reference[key]; ok {
			return factor
		}
		return factors[matKey]
	}
	if matKey, ok := categoryMaterials[normalize(itemType)]; ok {
		return factors[matKey]
	}
	return factors[DefaultCategory]
}

// DefaultFactor returns the fallback entry.
func DefaultFactor() MaterialFactor {
	return factors[DefaultCategory]
}
