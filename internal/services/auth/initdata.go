package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidInitData = errors.New("invalid telegram init data")

const clockSkew = 2 * time.Minute

// Verifier checks the initData string a Telegram WebApp sends with every
// request, as described in the Bot API "Validating data received via the Mini
// App" section.
type Verifier struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	return &Verifier{
		botToken: botToken,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (v *Verifier) Verify(initData string) (Identity, error) {
	trimmed := strings.TrimSpace(initData)
	if trimmed == "" || v.botToken == "" {
		return Identity{}, ErrInvalidInitData
	}

	query, err := url.ParseQuery(trimmed)
	if err != nil {
		return Identity{}, fmt.Errorf("parse init data: %w", ErrInvalidInitData)
	}

	hash := strings.TrimSpace(query.Get("hash"))
	if hash == "" {
		return Identity{}, ErrInvalidInitData
	}
	query.Del("hash")

	if !hmac.Equal([]byte(strings.ToLower(hash)), []byte(Sign(query, v.botToken))) {
		return Identity{}, ErrInvalidInitData
	}

	authDate, err := strconv.ParseInt(strings.TrimSpace(query.Get("auth_date")), 10, 64)
	if err != nil || authDate <= 0 {
		return Identity{}, ErrInvalidInitData
	}
	now := v.now().UTC()
	authTime := time.Unix(authDate, 0).UTC()
	if authTime.After(now.Add(clockSkew)) {
		return Identity{}, ErrInvalidInitData
	}
	if v.maxAge > 0 && now.Sub(authTime) > v.maxAge {
		return Identity{}, ErrInvalidInitData
	}

	var user struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(query.Get("user")), &user); err != nil || user.ID <= 0 {
		return Identity{}, ErrInvalidInitData
	}

	return Identity{ChatID: user.ID, Username: user.Username}, nil
}

// Sign returns the hex hash Telegram would attach to fields (without the
// hash field itself).
func Sign(fields url.Values, botToken string) string {
	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	return hex.EncodeToString(hmacSHA256(secret, []byte(dataCheckString(fields))))
}

func dataCheckString(fields url.Values) string {
	pairs := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == "hash" {
			continue
		}
		if len(v) == 0 {
			pairs = append(pairs, k+"=")
			continue
		}
		pairs = append(pairs, k+"="+v[0])
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\n")
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
