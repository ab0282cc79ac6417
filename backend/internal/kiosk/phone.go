package kiosk

import "strings"

// FormatWhatsApp 去除非数字字符后逐步插入标点：
// ≤2 位原样，≤7 位 "(DD) DDDDD"，其余 "(DD) DDDDD-DDDD"（最多 11 位数字）
func FormatWhatsApp(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch n := len(digits); {
	case n <= 2:
		return digits
	case n <= 7:
		return "(" + digits[:2] + ") " + digits[2:]
	default:
		if n > 11 {
			digits = digits[:11]
		}
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	}
}
