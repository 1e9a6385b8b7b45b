package domain

import (
	"path/filepath"
	"strings"
)

// Category is a product category from the closed extraction vocabulary.
type Category string

const (
	CategoryProduce    Category = "PRODUCE"
	CategoryDairy      Category = "DAIRY"
	CategoryMeat       Category = "MEAT"
	CategorySeafood    Category = "SEAFOOD"
	CategoryBeverages  Category = "Beverages"
	CategoryDryGrocery Category = "Dry Grocery"
	CategoryBakery     Category = "BAKERY"
	CategoryFrozen     Category = "FROZEN"
	CategoryPaperGoods Category = "paper goods and Disposables"
	CategoryLiquor     Category = "liquor"
	CategoryChemical   Category = "Chemical"
	CategoryOther      Category = "OTHER"
)

// Categories lists the vocabulary in prompt order.
var Categories = []Category{
	CategoryProduce, CategoryDairy, CategoryMeat, CategorySeafood,
	CategoryBeverages, CategoryDryGrocery, CategoryBakery, CategoryFrozen,
	CategoryPaperGoods, CategoryLiquor, CategoryChemical, CategoryOther,
}

// ParseCategory matches s case-insensitively against the vocabulary and
// falls back to OTHER.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// UnmarshalJSON implements json.Unmarshaler. Non-string values decode the
// way Text does; Normalize maps the result onto the vocabulary.
func (c *Category) UnmarshalJSON(data []byte) error {
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	*c = Category(t)
	return nil
}

// Flag values used by Splitable and Catch Weight.
const (
	FlagYes = "YES"
	FlagNo  = "NO"
)

// unitSynonyms maps invoice unit tokens to a canonical unit name.
var unitSynonyms = map[string][]string{
	"pounds":       {"LB", "LBS", "#", "POUND"},
	"ounces":       {"OZ", "OUNCE"},
	"kilos":        {"KG", "KILO"},
	"grams":        {"G", "GM", "GRAM"},
	"each":         {"EA", "PC", "CT", "COUNT", "PIECE"},
	"case":         {"CS", "CASE", "BX", "BOX"},
	"dozen":        {"DOZ", "DZ"},
	"pack":         {"PK", "PACK", "PKG"},
	"bundle":       {"BDL", "BUNDLE"},
	"gallons":      {"GAL", "GALLON"},
	"quarts":       {"QT", "QUART"},
	"pints":        {"PT", "PINT"},
	"fluid_ounces": {"FL OZ", "FLOZ"},
	"liters":       {"L", "LT", "LTR"},
	"milliliters":  {"ML"},
	"cans":         {"CN", "CAN", "#10 CAN"},
	"jars":         {"JR", "JAR"},
	"bottles":      {"BTL", "BOTTLE"},
	"containers":   {"CTN", "CONT"},
	"tubs":         {"TB", "TUB"},
	"bags":         {"BG", "BAG"},
	"bunch":        {"BN", "BCH", "BUNCH"},
	"head":         {"HD", "HEAD"},
	"basket":       {"BSK", "BASKET"},
	"crate":        {"CRT", "CRATE"},
	"carton":       {"CRTN", "CARTON"},
}

var unitLookup = func() map[string]string {
	m := make(map[string]string)
	for canonical, tokens := range unitSynonyms {
		m[strings.ToUpper(canonical)] = canonical
		for _, t := range tokens {
			m[t] = canonical
		}
	}
	return m
}()

// CanonicalUnit maps a unit token such as "LBS" or "Fl Oz" to its canonical
// name. Unknown tokens are returned unchanged with ok=false.
func CanonicalUnit(token string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(token))
	if c, ok := unitLookup[key]; ok {
		return c, true
	}
	return token, false
}

// ContentTypes maps a file extension to the content type sent to the layout service.
var ContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heif": "image/heif",
}

// ContentTypeFor returns the content type for a file path and whether the
// extension is supported.
func ContentTypeFor(path string) (string, bool) {
	ct, ok := ContentTypes[strings.ToLower(filepath.Ext(path))]
	return ct, ok
}
