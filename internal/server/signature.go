package server

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"
)

// slackTimestampTolerance is the freshness window for Slack webhooks.
// Anything older (or newer) is treated as a possible replay.
const slackTimestampTolerance = 5 * time.Minute

// verifySlackSignature checks the Slack v0 signing scheme: the declared
// signature must equal "v0=" + hex(HMAC-SHA256(secret, "v0:<ts>:<body>"))
// and the declared timestamp must be within five minutes of now.
func verifySlackSignature(body []byte, signature, timestamp, secret string, now time.Time) bool {
	if signature == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if age > int64(slackTimestampTolerance.Seconds()) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	// Timing-safe comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}

// verifySponsorsSignature checks the GitHub Sponsors scheme: the declared
// signature must equal "sha1=" + hex(HMAC-SHA1(secret, body)). The protocol
// carries no timestamp, so there is no freshness check.
func verifySponsorsSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	expected := "sha1=" + hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}
