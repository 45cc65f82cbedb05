package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Headers set on every delivery.
const (
	HeaderDeliveryID = "X-Leagueflow-Delivery"
	HeaderEffect     = "X-Leagueflow-Effect"
	HeaderTimestamp  = "X-Leagueflow-Timestamp"
	HeaderSignature  = "X-Leagueflow-Signature"
)

const signaturePrefix = "sha256="

// Sign returns the signature header value for body sent at ts:
// "sha256=" + hex(HMAC-SHA256(secret, "<unix ts>.<body>")).
func Sign(secret string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature headers of a received delivery. Deliveries
// older than maxAge, or more than a minute in the future, are rejected;
// maxAge <= 0 disables the age check.
func Verify(secret string, h http.Header, body []byte, maxAge time.Duration, now time.Time) error {
	sig := h.Get(HeaderSignature)
	if !strings.HasPrefix(sig, signaturePrefix) {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}
	unix, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	ts := time.Unix(unix, 0)
	if maxAge > 0 {
		if age := now.Sub(ts); age > maxAge || age < -time.Minute {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}
	if !hmac.Equal([]byte(sig), []byte(Sign(secret, ts, body))) {
		return ErrInvalidSignature
	}
	return nil
}
