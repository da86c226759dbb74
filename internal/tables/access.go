package tables

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	AccessQueryParam  = "access"
	defaultTokenChars = 36
	defaultQRSize     = 512
)

var ErrInvalidAccessToken = errors.New("invalid table access token")

// NewAccessToken returns a random lowercase hex token of the requested
// length, clamped to the accepted range. Zero or negative uses the default.
func NewAccessToken(length int) (string, error) {
	if length <= 0 {
		length = defaultTokenChars
	}
	if length < TokenMinLength {
		length = TokenMinLength
	}
	if length > TokenMaxLength {
		length = TokenMaxLength
	}

	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}

// BuildQRURL returns <base>/<number>?access=<token>.
func BuildQRURL(baseURL string, number int, token string) (string, error) {
	token = strings.TrimSpace(token)
	if !ValidToken(token) {
		return "", ErrInvalidAccessToken
	}

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = "http://localhost:3000"
	}

	u, err := url.Parse(fmt.Sprintf("%s/%d", base, number))
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set(AccessQueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TokenFromQRURL extracts a well-formed access token from a table QR target.
func TokenFromQRURL(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(u.Query().Get(AccessQueryParam))
	if !ValidToken(token) {
		return "", false
	}
	return token, true
}

func QRCodePNG(target string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	return qrcode.Encode(target, qrcode.Medium, size)
}
