package booking

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingID returns an id of the form RES-<base36 millis>-<4 chars>,
// e.g. RES-LQ2Z8K1C-7F3A.
func NewBookingID(now time.Time) string {
	var sb strings.Builder
	sb.WriteString("RES-")
	sb.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
	sb.WriteByte('-')
	max := big.NewInt(int64(len(idAlphabet)))
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms; fall back
			// to the clock so the id stays well formed.
			n = big.NewInt(now.UnixNano() >> (i * 5) % int64(len(idAlphabet)))
		}
		sb.WriteByte(idAlphabet[n.Int64()])
	}
	return sb.String()
}
