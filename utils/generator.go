package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrPrefix    = "booking"
	qrImageSize = 256
	otpMin      = 100000
	otpSpan     = 900000
)

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is unusable
		panic(fmt.Sprintf("utils: read random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

// GenerateGuestID returns an opaque identity such as guest_m3x9k2_a1b2c3d4e5f60718.
func GenerateGuestID(now time.Time) string {
	return fmt.Sprintf("guest_%s_%s", strconv.FormatInt(now.UnixMilli(), 36), randomHex(8))
}

var guestIDPattern = regexp.MustCompile(`^guest_[0-9a-z]{1,13}_[0-9a-f]{16}$`)

// ValidGuestID reports whether id has the shape GenerateGuestID produces.
func ValidGuestID(id string) bool {
	return len(id) <= 64 && guestIDPattern.MatchString(id)
}

// GenerateOTP returns a six digit numeric code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// GenerateQRPayload embeds the student and date plus a random nonce.
// The payload is an unsigned lookup token, not proof of anything.
func GenerateQRPayload(studentID uuid.UUID, date string) string {
	return fmt.Sprintf("%s:%s:%s:%s", qrPrefix, studentID, date, randomHex(6))
}

// QRCodeDataURL renders payload as a PNG data URL.
func QRCodeDataURL(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
