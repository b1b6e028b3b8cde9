package calc

import (
	"strings"
	"unicode"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// RuntimeInfo holds read-only facts about the host locale and workbook
type RuntimeInfo struct {
	Locale           string `json:"locale" yaml:"locale"`
	CurrencyCode     string `json:"currencyCode" yaml:"currencyCode"`
	CurrencySymbol   string `json:"currencySymbol" yaml:"currencySymbol"`
	DecimalSeparator string `json:"decimalSeparator" yaml:"decimalSeparator"`
	GroupSeparator   string `json:"groupSeparator" yaml:"groupSeparator"`
	Date1904         bool   `json:"date1904" yaml:"date1904"`

	tag language.Tag
}

// NewRuntimeInfo derives separators and currency from a BCP 47 locale
func NewRuntimeInfo(locale string, date1904 bool) (RuntimeInfo, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return RuntimeInfo{}, wrapApplicationError(InvalidArgument, err, "invalid locale %q", locale)
	}
	p := message.NewPrinter(tag)
	decimal, group := separators(p.Sprintf("%v", number.Decimal(1234567.5)))

	info := RuntimeInfo{
		Locale:           tag.String(),
		DecimalSeparator: decimal,
		GroupSeparator:   group,
		Date1904:         date1904,
		tag:              tag,
	}
	if unit, conf := currency.FromTag(tag); conf != language.No {
		info.CurrencyCode = unit.String()
		info.CurrencySymbol = p.Sprintf("%v", currency.Symbol(unit))
	}
	return info, nil
}

// separators splits a formatted 1234567.5 into its decimal and grouping
// marks: the last run of non-digits is the decimal mark, the first one the
// group mark when there are at least two runs.
func separators(formatted string) (decimal, group string) {
	var runs []string
	var cur strings.Builder
	for _, ch := range formatted {
		if unicode.IsDigit(ch) {
			if cur.Len() > 0 {
				runs = append(runs, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(ch)
	}
	switch len(runs) {
	case 0:
		return ".", ""
	case 1:
		return runs[0], ""
	default:
		return runs[len(runs)-1], runs[0]
	}
}

// Tag returns the parsed locale
func (ri RuntimeInfo) Tag() language.Tag {
	return ri.tag
}

// DateSystem returns the serial date system of the workbook
func (ri RuntimeInfo) DateSystem() DateSystem {
	if ri.Date1904 {
		return DateSystem1904
	}
	return DateSystem1900
}

// FormatNumber renders v with the locale's separators
func (ri RuntimeInfo) FormatNumber(v float64) string {
	return message.NewPrinter(ri.tag).Sprintf("%v", number.Decimal(v))
}
