package morm

import "time"

// 分页相关常量
const (
	// DefaultPage 默认页码
	DefaultPage = 1

	// DefaultPageSize 默认每页大小
	DefaultPageSize = 10

	// MinPageSize 最小每页大小
	MinPageSize = 1

	// MaxPageSize 最大每页大小（防止一次查询过多数据）
	MaxPageSize = 10000
)

// 缓存相关常量
const (
	// DefaultCacheCleanupInterval 本地缓存过期清理间隔
	DefaultCacheCleanupInterval = time.Minute
)
