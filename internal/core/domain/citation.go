package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BillType is the canonical code of a federal bill type.
type BillType string

const (
	BillHR      BillType = "hr"
	BillS       BillType = "s"
	BillHJRes   BillType = "hjres"
	BillSJRes   BillType = "sjres"
	BillHConRes BillType = "hconres"
	BillSConRes BillType = "sconres"
	BillHRes    BillType = "hres"
	BillSRes    BillType = "sres"
)

// Citation is a parsed federal bill citation.
type Citation struct {
	Type   BillType
	Number int
}

// CanonicalKey returns the measure key this citation resolves to.
func (c Citation) CanonicalKey(congress int) string {
	return FederalCanonicalKey(congress, string(c.Type), strconv.Itoa(c.Number))
}

func (c Citation) String() string {
	return fmt.Sprintf("%s%d", c.Type, c.Number)
}

type citationPattern struct {
	re       *regexp.Regexp
	billType BillType
}

// citationPatterns are evaluated in order and the first match wins. Each
// pattern is anchored at the start of the citation, so a shorter prefix
// such as "S." can never match inside "S.J.Res.".
var citationPatterns = []citationPattern{
	{regexp.MustCompile(`^H\.?\s*R\.?\s*(\d+)\b`), BillHR},
	{regexp.MustCompile(`^S\.?\s*(\d+)\b`), BillS},
	{regexp.MustCompile(`^H\.?\s*J\.?\s*RES\.?\s*(\d+)\b`), BillHJRes},
	{regexp.MustCompile(`^S\.?\s*J\.?\s*RES\.?\s*(\d+)\b`), BillSJRes},
	{regexp.MustCompile(`^H\.?\s*CON\.?\s*RES\.?\s*(\d+)\b`), BillHConRes},
	{regexp.MustCompile(`^S\.?\s*CON\.?\s*RES\.?\s*(\d+)\b`), BillSConRes},
	{regexp.MustCompile(`^H\.?\s*RES\.?\s*(\d+)\b`), BillHRes},
	{regexp.MustCompile(`^S\.?\s*RES\.?\s*(\d+)\b`), BillSRes},
}

// ParseCitation parses free-text legislative citations such as "H.R. 1228",
// "S 5", "S.J.Res. 12" or "H Con Res 7". It reports false for anything it
// does not recognise (nominations, procedural motions, amendments).
func ParseCitation(text string) (Citation, bool) {
	ref := strings.ToUpper(strings.TrimSpace(text))
	if ref == "" {
		return Citation{}, false
	}
	for _, p := range citationPatterns {
		m := p.re.FindStringSubmatch(ref)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return Citation{}, false
		}
		return Citation{Type: p.billType, Number: n}, true
	}
	return Citation{}, false
}

// FederalCanonicalKey builds us:congress:{congress}:{type}:{number}.
func FederalCanonicalKey(congress int, billType, number string) string {
	return CanonicalKey("us", "congress", strconv.Itoa(congress), billType, number)
}

// CanonicalKey joins {country}:{body}:{session}:{type}:{number}, lowercased
// with inner whitespace collapsed to "-".
func CanonicalKey(country, body, session, kind, number string) string {
	parts := []string{country, body, session, kind, number}
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(strings.ToLower(p)), "-")
	}
	return strings.Join(parts, ":")
}

var identifierRe = regexp.MustCompile(`^([A-Za-z][A-Za-z.\s]*?)\s*0*(\d+)$`)

// SplitIdentifier splits a state bill identifier such as "HB 2001" or
// "SCR1003" into its lowercased type ("hb", "scr") and number ("2001").
func SplitIdentifier(identifier string) (kind, number string, ok bool) {
	m := identifierRe.FindStringSubmatch(strings.TrimSpace(identifier))
	if m == nil {
		return "", "", false
	}
	kind = strings.ToLower(strings.NewReplacer(".", "", " ", "").Replace(m[1]))
	if kind == "" {
		return "", "", false
	}
	return kind, m[2], true
}
