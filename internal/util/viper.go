package util

import (
	"strings"

	"github.com/spf13/viper"
)

// SetKeyValue sets a config value by its key (rate_limiter.rate) or by its
// environment variable name (MS_RATE_LIMITER_RATE). It returns false when
// no such key is known to vi.
func SetKeyValue(vi *viper.Viper, key string, value interface{}) bool {
	if strings.HasPrefix(key, "MS_") {
		key = key[3:]
	}
	k := strings.ToLower(key)
	ek := strings.ReplaceAll(k, ".", "_")

	for _, vk := range vi.AllKeys() {
		if vk == k || strings.ReplaceAll(vk, ".", "_") == ek {
			vi.Set(vk, value)
			return true
		}
	}

	return false
}
