package transaction

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// HashID is the external reference for providers that never see raw ids:
// hex md5 of the decimal id followed by the salt.
func HashID(id int64, salt string) string {
	sum := md5.Sum([]byte(strconv.FormatInt(id, 10) + salt))
	return hex.EncodeToString(sum[:])
}
