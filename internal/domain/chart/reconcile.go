package chart

import (
	"strings"
	"time"
)

// symbolRule maps a procedure-text keyword to the symbol it implies. Rules are
// evaluated in order and the first match wins, so "Crown Restoration" resolves
// to SymbolFilled via the restoration keyword before the crown keyword is
// considered.
type symbolRule struct {
	keywords []string
	symbol   Symbol
}

var symbolRules = []symbolRule{
	{keywords: []string{"filling", "restoration"}, symbol: SymbolFilled},
	{keywords: []string{"extraction"}, symbol: SymbolMissing},
	{keywords: []string{"crown"}, symbol: SymbolCrown},
	{keywords: []string{"root canal"}, symbol: SymbolFilled},
	{keywords: []string{"cleaning"}, symbol: SymbolNone},
}

// DeriveSymbol maps a procedure description to a chart symbol by
// case-insensitive substring match. SymbolNone means the chart is not
// touched for this procedure.
func DeriveSymbol(procedureText string) Symbol {
	text := strings.ToLower(procedureText)
	for _, rule := range symbolRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.symbol
			}
		}
	}
	return SymbolNone
}

// MergeTooth returns a copy of doc with the entry for the given canonical
// tooth id replaced. Every other tooth entry and all assessment sections are
// carried over unchanged. If symbol is SymbolNone the document is returned
// as-is.
func MergeTooth(doc *Document, toothID int, symbol Symbol, procedureText string, date time.Time) *Document {
	if symbol == SymbolNone {
		return doc
	}

	merged := &Document{
		ID:          doc.ID,
		PatientID:   doc.PatientID,
		Teeth:       make(map[string]ToothEntry, len(doc.Teeth)+1),
		Periodontal: doc.Periodontal,
		Occlusion:   doc.Occlusion,
		Appliances:  doc.Appliances,
		TMD:         doc.TMD,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for k, v := range doc.Teeth {
		merged.Teeth[k] = v
	}
	merged.Teeth[ToothKey(toothID)] = ToothEntry{
		Symbol:        symbol,
		Procedure:     procedureText,
		TreatmentDate: date.Format("2006-01-02"),
	}
	return merged
}
