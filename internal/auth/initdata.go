// Package auth verifies Telegram Mini App init data and guards the HTTP API.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Verify checks a Telegram WebApp init-data string against the bot token.
//
// Behavior:
//   - hash is removed and the remaining pairs are sorted into "k=v" lines joined by "\n".
//   - secret = HMAC-SHA256(key="WebAppData", msg=botToken).
//   - The hex HMAC of the data-check string is compared in constant time.
//   - A missing hash or user field fails verification.
//
// Claims are returned only when ok is true.
func Verify(initData, botToken string) (bool, map[string]string) {
	if initData == "" || botToken == "" {
		return false, nil
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return false, nil
	}

	claims := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			claims[k] = v[0]
		}
	}

	hash := claims["hash"]
	delete(claims, "hash")
	if hash == "" {
		return false, nil
	}
	if _, ok := claims["user"]; !ok {
		return false, nil
	}

	expected := Sign(claims, botToken)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return false, nil
	}
	return true, claims
}

// Sign computes the hex hash Telegram would attach to claims.
func Sign(claims map[string]string, botToken string) string {
	keys := make([]string, 0, len(claims))
	for k := range claims {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+claims[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode builds a signed init-data query string, mainly for tests and local tooling.
func Encode(claims map[string]string, botToken string) string {
	v := url.Values{}
	for k, val := range claims {
		v.Set(k, val)
	}
	v.Set("hash", Sign(claims, botToken))
	return v.Encode()
}
