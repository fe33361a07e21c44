package pkguid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const uploadRandLen = 9

// Upload generates upload identifiers of the form
// upload_<unix millis>_<9 base36 chars>.
//
// The timestamp keeps identifiers roughly sortable by creation time; the
// random tail disambiguates uploads created in the same millisecond.
type Upload struct {
	now func() time.Time
}

// NewUpload returns an upload identifier generator.
func NewUpload() *Upload {
	return &Upload{now: time.Now}
}

// Generate returns a new upload identifier string.
func (u *Upload) Generate() string {
	return fmt.Sprintf("upload_%d_%s", u.now().UnixMilli(), randomBase36(uploadRandLen))
}

func randomBase36(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// degrade to a time-derived digit rather than panic.
			out[i] = alphabet[time.Now().UnixNano()%int64(len(alphabet))]
			continue
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}
