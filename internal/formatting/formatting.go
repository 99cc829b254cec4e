// Package formatting renders amounts, dates and identifiers for display.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "th-TH"

var symbols = map[string]string{
	"THB": "฿",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"SGD": "S$",
}

// Formatter formats values for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter builds a Formatter; an unparsable locale falls back to DefaultLocale.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

var defaultFormatter = NewFormatter(DefaultLocale)

// Locale returns the BCP 47 tag in use.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

func (f *Formatter) isThai() bool {
	base, _ := f.tag.Base()
	return base.String() == "th"
}

// Number formats value with exactly decimals fraction digits and grouping.
func (f *Formatter) Number(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	return f.printer.Sprint(number.Decimal(value,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// Currency formats amount with two fraction digits and the currency symbol.
// Unknown currency codes fall back to the code itself as prefix.
func (f *Formatter) Currency(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "THB"
	}
	symbol, ok := symbols[code]
	if !ok {
		if unit, err := currency.ParseISO(code); err == nil {
			symbol = unit.String() + " "
		} else {
			symbol = symbols["THB"]
		}
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + symbol + f.Number(amount, 2)
}

// Percentage formats value (already in percent units) with decimals fraction digits.
func (f *Formatter) Percentage(value float64, decimals int) string {
	return f.Number(value, decimals) + "%"
}

var (
	thaiMonthsLong  = []string{"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน", "กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม"}
	thaiMonthsShort = []string{"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.", "ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค."}
)

// buddhistEraOffset converts a Gregorian year to the Thai solar calendar.
const buddhistEraOffset = 543

// Date renders a long date: "17 ตุลาคม 2569" for Thai, "October 17, 2026" otherwise.
func (f *Formatter) Date(t time.Time) string {
	if f.isThai() {
		return fmt.Sprintf("%d %s %d", t.Day(), thaiMonthsLong[t.Month()-1], t.Year()+buddhistEraOffset)
	}
	if f.tag == language.BritishEnglish {
		return t.Format("2 January 2006")
	}
	return t.Format("January 2, 2006")
}

// DateTime renders a short date with hours and minutes.
func (f *Formatter) DateTime(t time.Time) string {
	if f.isThai() {
		return fmt.Sprintf("%d %s %d %s", t.Day(), thaiMonthsShort[t.Month()-1], t.Year()+buddhistEraOffset, t.Format("15:04"))
	}
	if f.tag == language.BritishEnglish {
		return t.Format("2 Jan 2006, 15:04")
	}
	return t.Format("Jan 2, 2006, 03:04 PM")
}

// DateString parses value and renders it with Date; empty or unparsable input yields "".
func (f *Formatter) DateString(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return ""
	}
	return f.Date(t)
}

// DateTimeString parses value and renders it with DateTime.
func (f *Formatter) DateTimeString(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return ""
	}
	return f.DateTime(t)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts calendar dates and ISO-8601 timestamps.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatCurrency formats amount in the default locale.
func FormatCurrency(amount float64, code string) string {
	return defaultFormatter.Currency(amount, code)
}

// FormatNumber formats value in the default locale.
func FormatNumber(value float64, decimals int) string {
	return defaultFormatter.Number(value, decimals)
}

// FormatPercentage formats a percent value in the default locale.
func FormatPercentage(value float64, decimals int) string {
	return defaultFormatter.Percentage(value, decimals)
}

// FormatDate renders value as a long date in locale.
func FormatDate(value, locale string) string {
	return NewFormatter(locale).DateString(value)
}

// FormatDateTime renders value as a short date-time in locale.
func FormatDateTime(value, locale string) string {
	return NewFormatter(locale).DateTimeString(value)
}

// ParseNumber strips everything except digits, dots and minus signs, then
// reads the leading number. Non-numeric input yields 0.
func ParseNumber(value any) float64 {
	switch v := value.(type) {
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, v)
		return pricing.ParseAmount(cleaned)
	default:
		return pricing.ParseAmount(value)
	}
}

var fileSizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with a binary unit, e.g. "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024.0
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(fileSizeUnits) {
		i = len(fileSizeUnits) - 1
	}
	scaled := math.Round(float64(bytes)/math.Pow(k, float64(i))*100) / 100
	return strconv.FormatFloat(scaled, 'f', -1, 64) + " " + fileSizeUnits[i]
}

// TruncateText shortens text to maxLength runes and appends "...". A
// non-positive maxLength means 100.
func TruncateText(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 100
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}

// GenerateQuoteNumber returns "<prefix>-<year>-<last six digits of the unix millis>".
func GenerateQuoteNumber(prefix string, now time.Time) string {
	if strings.TrimSpace(prefix) == "" {
		prefix = "QT"
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.Year(), LastDigits(now.UnixMilli(), 6))
}

// LastDigits returns the trailing count decimal digits of n.
func LastDigits(n int64, count int) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= count {
		return s
	}
	return s[len(s)-count:]
}

// FormatPhoneNumber groups Thai numbers: "081 234 5678" for ten local digits
// and "+66 81 234 5678" for the international form. Other input is returned unchanged.
func FormatPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}
	cleaned := DigitsOnly(phone)
	switch {
	case len(cleaned) == 10 && strings.HasPrefix(cleaned, "0"):
		return fmt.Sprintf("%s %s %s", cleaned[0:3], cleaned[3:6], cleaned[6:10])
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, "66"):
		return fmt.Sprintf("+66 %s %s %s", cleaned[2:4], cleaned[4:7], cleaned[7:11])
	default:
		return phone
	}
}

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
