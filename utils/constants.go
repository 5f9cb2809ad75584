package utils

import "time"

// Context keys used to carry request metadata from handlers into flows
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserAgentKey ContextKey = "user_agent"
	IPAddressKey ContextKey = "ip_address"
	EndpointKey  ContextKey = "endpoint"
	TimeoutKey   ContextKey = "timeout"
)

// Reward constants
const (
	// DefaultRewardCents is the flat per-click incentive (0.05) credited to a seller
	DefaultRewardCents int64 = 5

	// ShortCodeLength is the fixed length of generated short codes
	ShortCodeLength = 8

	// MaxShortCodeLength is the longest code the redirect endpoint accepts
	MaxShortCodeLength = 10

	// LinkCacheTTL bounds how long a resolved link stays in the cache
	LinkCacheTTL = time.Hour
)

// HTTP constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Pagination constants
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)
