package provider

import (
	"net/url"
	"strings"
)

// providerRule - правило определения провайдера по подстроке в URL
// Порядок правил фиксирован: телеком до банков, generic "cbe" в самом конце,
// чтобы URL вида pay.telebirr.et/?via=cbe не классифицировался как CBE
type providerRule struct {
	substr   string
	provider Provider
}

// providerRules сканируются по порядку против lowercase(host + path + query)
// Первое совпадение выигрывает
var providerRules = []providerRule{
	{"telebirr", Telebirr},
	{"ethiotelecom", Telebirr},
	{"awashpay", Awash},
	{"awash", Awash},
	{"abyssinia", BOA},
	{"boasc", BOA},
	{"boa", BOA},
	{"dashen", Dashen},
	{"combanketh", CBE},
	{"cbe", CBE},
}

// referenceKeys - известные имена query-параметров, в которых провайдеры
// передают reference транзакции. Пробуются по порядку, регистронезависимо,
// выигрывает первое непустое значение
var referenceKeys = []string{
	"reference",
	"ref",
	"transactionReference",
	"transaction_ref",
	"txRef",
	"txnRef",
	"txn",
	"tx",
	"txno",
	"ftref",
	"ft",
	"receipt",
	"receiptNumber",
	"code",
	"id",
}

// Extracted - результат извлечения: провайдер и reference
type Extracted struct {
	Provider  Provider
	Reference string
}

// Extract разбирает QR URL и определяет (provider, reference)
// hint, если непустой, имеет приоритет над эвристикой по URL;
// refOverride, если непустой после trim, используется как есть.
// Ошибки: ErrInvalidInput для кривого URL (проверяется до всего остального),
// ErrUnresolvedProvider / ErrUnresolvedReference когда ничего не нашлось
func Extract(input string, hint Provider, refOverride string) (Extracted, error) {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Extracted{}, ErrInvalidInput
	}

	// Определяем провайдера
	p := hint
	if p == "" {
		haystack := strings.ToLower(u.Host + u.Path + "?" + u.RawQuery)
		for _, rule := range providerRules {
			if strings.Contains(haystack, rule.substr) {
				p = rule.provider
				break
			}
		}
	}
	if p == "" {
		return Extracted{}, ErrUnresolvedProvider
	}

	// Определяем reference
	ref := strings.TrimSpace(refOverride)
	if ref == "" {
		ref = findReference(u.Query())
	}
	if ref == "" {
		return Extracted{}, ErrUnresolvedReference
	}

	return Extracted{Provider: p, Reference: ref}, nil
}

// findReference ищет reference в query-параметрах по списку кандидатов
// Сравнение ключей регистронезависимое
func findReference(query url.Values) string {
	// Приводим все ключи к lowercase один раз
	lowered := make(map[string]string, len(query))
	for key, values := range query {
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			lk := strings.ToLower(key)
			if _, exists := lowered[lk]; !exists {
				lowered[lk] = v
			}
		}
	}

	for _, candidate := range referenceKeys {
		if v, ok := lowered[strings.ToLower(candidate)]; ok {
			return v
		}
	}
	return ""
}
