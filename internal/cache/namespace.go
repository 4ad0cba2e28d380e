package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

func namespaceVersionKey(namespace string) string {
	return fmt.Sprintf("ver:%s", strings.TrimSpace(namespace))
}

// NamespaceVersion 获取命名空间当前版本号，未初始化时为 0
func NamespaceVersion(ctx context.Context, namespace string) (int64, error) {
	if !Enabled() {
		return 0, nil
	}
	version, err := redisClient.Get(ctx, buildKey(namespaceVersionKey(namespace))).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// BumpNamespace 递增命名空间版本号，使旧版本下的缓存键全部失效
func BumpNamespace(ctx context.Context, namespace string) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Incr(ctx, buildKey(namespaceVersionKey(namespace))).Err()
}

// VersionedKey 拼接带版本号的缓存键
func VersionedKey(namespace string, version int64, parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, strings.TrimSpace(namespace), fmt.Sprintf("v%d", version))
	for _, part := range parts {
		segments = append(segments, strings.TrimSpace(part))
	}
	return strings.Join(segments, ":")
}
