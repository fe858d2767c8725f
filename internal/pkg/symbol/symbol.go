// Package symbol normalizes the instrument names found in workflow files
// onto the form exchange APIs expect.
package symbol

import "strings"

// Normalize maps a user-written symbol ("btc/usdt", "ETH-USDT") onto the
// exchange form ("BTCUSDT"). Empty input stays empty.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
