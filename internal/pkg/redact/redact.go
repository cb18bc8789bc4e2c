// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Email оставляет первые две руны локальной части и домен: "alice@x.com" -> "al***@x.com".
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***"
	}

	runes := []rune(local)
	if len(runes) > 2 {
		return string(runes[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// Hash укорачивает хэш refresh-токена до префикса, достаточного для корреляции записей в логах.
func Hash(h string) string {
	if len(h) <= 8 {
		return "***"
	}

	return h[:8] + "..."
}
