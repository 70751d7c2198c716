package constants

type (
	RequestSource string
	APIStatus     string
	CachePrefix   string
)

const (
	RequestSourceAPI       RequestSource = "API"
	RequestSourceScheduler RequestSource = "SCHEDULER"

	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixToken    CachePrefix = "token:"
	CachePrefixSyncLock CachePrefix = "sync:lock:"
)
