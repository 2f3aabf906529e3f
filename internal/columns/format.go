package columns

import (
	"fmt"
	"strings"
	"time"

	"github.com/emberline/stockroom/internal/records"
	"github.com/shopspring/decimal"
)

// Formatter renders one non-null cell value. Formatters are pure and must
// accept any value of the kind their column holds.
type Formatter func(records.Value) string

// Verbatim renders the value's plain text.
func Verbatim(value records.Value) string {
	return value.Text()
}

// ZeroPad renders integers left-padded with zeros to width digits.
func ZeroPad(width int) Formatter {
	return func(value records.Value) string {
		if number, ok := value.Int64(); ok {
			return fmt.Sprintf("%0*d", width, number)
		}
		text := value.Text()
		if len(text) >= width {
			return text
		}
		return strings.Repeat("0", width-len(text)) + text
	}
}

// Money renders a number with a currency symbol and two decimal places.
func Money(symbol string) Formatter {
	decimals := Fixed(2, "")
	return func(value records.Value) string {
		return symbol + decimals(value)
	}
}

// Fixed renders a number with a fixed number of decimals followed by a unit.
// Rounding is half away from zero on the shortest decimal form of the value,
// so 2.675 renders as 2.68 even though its binary form is slightly lower.
func Fixed(decimals int, unit string) Formatter {
	return func(value records.Value) string {
		number, ok := value.Float64()
		if !ok {
			return value.Text() + unit
		}
		return decimal.NewFromFloat(number).StringFixed(int32(decimals)) + unit
	}
}

// Suffix appends a unit to the value's plain text.
func Suffix(unit string) Formatter {
	return func(value records.Value) string {
		return value.Text() + unit
	}
}

// YesNo renders truthy values as "Yes" and everything else as "No".
func YesNo(value records.Value) string {
	if flag, ok := value.Boolean(); ok {
		return yesNo(flag)
	}
	if number, ok := value.Float64(); ok {
		return yesNo(number != 0)
	}
	return yesNo(value.Text() != "")
}

func yesNo(flag bool) string {
	if flag {
		return "Yes"
	}
	return "No"
}

// Lookup renders an index as its label. Out-of-range indexes render as the
// plain number.
func Lookup(labels []string) Formatter {
	owned := append([]string(nil), labels...)
	return func(value records.Value) string {
		index, ok := value.Int64()
		if !ok || index < 0 || index >= int64(len(owned)) {
			return value.Text()
		}
		return owned[index]
	}
}

// DateTime renders timestamps with the given layout.
func DateTime(layout string) Formatter {
	return func(value records.Value) string {
		stamp, ok := value.Timestamp()
		if !ok {
			return value.Text()
		}
		return stamp.Format(layout)
	}
}

// CTime is the layout of the upcoming-events listing, e.g. "Tue Nov  5 19:00:00 2024".
const CTime = time.ANSIC
