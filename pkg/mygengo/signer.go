package mygengo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Authentication query parameters.
const (
	ParamAPIKey    = "api_key"
	ParamTimestamp = "ts"
	ParamSignature = "api_sig"
	ParamFormat    = "format"

	formatJSON = "json"
)

var reservedParams = map[string]struct{}{
	ParamAPIKey:    {},
	ParamTimestamp: {},
	ParamSignature: {},
	ParamFormat:    {},
}

// Credentials is the account key pair. The private key is only used as HMAC key.
type Credentials struct {
	PublicKey  string
	PrivateKey string
}

// Validate reports blank or malformed keys as ErrConfig.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.PublicKey) == "" {
		return fmt.Errorf("%w: public key is empty", ErrConfig)
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		return fmt.Errorf("%w: private key is empty", ErrConfig)
	}
	if strings.IndexFunc(c.PublicKey, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: public key contains whitespace", ErrConfig)
	}
	if strings.IndexFunc(c.PrivateKey, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: private key contains whitespace", ErrConfig)
	}
	return nil
}

// String never prints the private key.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{PublicKey: %q, PrivateKey: <redacted>}", c.PublicKey)
}

// Sign returns hex(HMAC-SHA1(privateKey, decimal ts)).
func Sign(privateKey string, ts int64) string {
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthParams builds the signed query parameters for a request issued at now.
// Timestamp and signature are always derived from the same instant.
func (c Credentials) AuthParams(now time.Time) url.Values {
	ts := now.Unix()
	v := url.Values{}
	v.Set(ParamAPIKey, c.PublicKey)
	v.Set(ParamTimestamp, strconv.FormatInt(ts, 10))
	v.Set(ParamSignature, Sign(c.PrivateKey, ts))
	v.Set(ParamFormat, formatJSON)
	return v
}
