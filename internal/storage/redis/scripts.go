package redis

const (
	// recordNotificationScript atomically stores a notification record and
	// indexes it under its day
	recordNotificationScript = `
local record_key = KEYS[1]    -- {prefix}:notify:{date}:{key}
local index_key = KEYS[2]     -- {prefix}:notify:index:{date}

local key = ARGV[1]
local kind = ARGV[2]
local category = ARGV[3]
local threshold_seconds = ARGV[4]
local date = ARGV[5]
local sent_at = ARGV[6]
local ttl = tonumber(ARGV[7])

redis.call('HSET', record_key,
  'key', key,
  'kind', kind,
  'category', category,
  'threshold_seconds', threshold_seconds,
  'date', date,
  'sent_at', sent_at
)
redis.call('HINCRBY', record_key, 'sent_count', 1)
redis.call('EXPIRE', record_key, ttl)

redis.call('SADD', index_key, key)
redis.call('EXPIRE', index_key, ttl)

return 'OK'
`

	// setDailyUsageScript atomically stores an absolute daily total and
	// indexes the category under its day
	setDailyUsageScript = `
local usage_key = KEYS[1]     -- {prefix}:usage:daily:{date}:{category}
local index_key = KEYS[2]     -- {prefix}:usage:daily:index:{date}

local date = ARGV[1]
local category = ARGV[2]
local seconds = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('HSET', usage_key,
  'date', date,
  'category', category,
  'total_seconds', seconds
)
redis.call('EXPIRE', usage_key, ttl)

redis.call('SADD', index_key, category)
redis.call('EXPIRE', index_key, ttl)

return 'OK'
`
)
