package saj

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the clientSign the vendor expects for device scoped calls:
// the lowercase hex SHA-256 of "appId=<appID>,deviceSN=<deviceSn>".
func Sign(appID, deviceSn string) string {
	sum := sha256.Sum256([]byte("appId=" + appID + ",deviceSN=" + deviceSn))
	return hex.EncodeToString(sum[:])
}
