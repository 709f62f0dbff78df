package universe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical field names.
const (
	FieldPrice          = "price"
	FieldPE             = "pe"
	FieldPB             = "pb"
	FieldDY             = "dy"
	FieldLiquidity      = "liquidity"
	FieldNetEquity      = "net_equity"
	FieldGrossDebtRatio = "gross_debt_ratio"
	FieldNetMargin      = "net_margin"
	FieldROE            = "roe"
	FieldROIC           = "roic"
	FieldGrowth5y       = "growth5y"
	FieldSector         = "sector"
)

type alias struct {
	fragment string
	field    string
}

// aliases is matched in order against cleaned column names; the first hit wins.
var aliases = []alias{
	{"cotacao", FieldPrice},
	{"pl", FieldPE},
	{"pvp", FieldPB},
	{"dy", FieldDY},
	{"divyield", FieldDY},
	{"liq2", FieldLiquidity},
	{"liq2m", FieldLiquidity},
	{"liquidez", FieldLiquidity},
	{"patrimliq", FieldNetEquity},
	{"divbrut", FieldGrossDebtRatio},
	{"mrgliq", FieldNetMargin},
	{"roe", FieldROE},
	{"roic", FieldROIC},
	{"cresc", FieldGrowth5y},
	{"segmento", FieldSector},
	{"setor", FieldSector},
}

// scaledFields may arrive in percent points and are subject to the mean > 5 heuristic.
var scaledFields = []string{FieldDY, FieldROE, FieldROIC, FieldNetMargin, FieldGrowth5y, FieldGrossDebtRatio}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CleanColumn lower-cases a header, strips diacritics and drops separators.
func CleanColumn(name string) string {
	s, _, err := transform.String(stripMarks, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '/', '_', '-', '\u00a0':
			return -1
		}
		return r
	}, s)
}

// CanonicalField returns the canonical field for a raw column name, or "".
func CanonicalField(column string) string {
	cleaned := CleanColumn(column)
	if cleaned == "" {
		return ""
	}
	for _, a := range aliases {
		if strings.Contains(cleaned, a.fragment) {
			return a.field
		}
	}
	return ""
}

// MapColumns maps canonical fields to the first raw column that resolves to them.
// Later columns resolving to an already mapped field are returned as duplicates.
func MapColumns(columns []string) (mapping map[string]string, duplicates []string) {
	mapping = make(map[string]string)
	for _, col := range columns {
		field := CanonicalField(col)
		if field == "" {
			continue
		}
		if _, taken := mapping[field]; taken {
			duplicates = append(duplicates, col)
			continue
		}
		mapping[field] = col
	}
	return mapping, duplicates
}
