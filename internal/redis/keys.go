package redis

// Key patterns.
const (
	AccessTokenKey = "saj:access_token"
)
