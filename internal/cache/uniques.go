package cache

import (
	"context"
	"fmt"
)

// Approximate unique visitors per workspace, kept in a HyperLogLog next to the exact counter.

func uniquesKey(workspaceID string) string {
	return fmt.Sprintf("zl:uv:%s", workspaceID)
}

// AddVisitor records visitorKey in the workspace's HyperLogLog.
func (rc *RedisClient) AddVisitor(ctx context.Context, workspaceID, visitorKey string) error {
	return rc.client.PFAdd(ctx, uniquesKey(workspaceID), visitorKey).Err()
}

// CountVisitors returns the HyperLogLog estimate for the workspace.
func (rc *RedisClient) CountVisitors(ctx context.Context, workspaceID string) (int64, error) {
	return rc.client.PFCount(ctx, uniquesKey(workspaceID)).Result()
}

// ForgetVisitors drops the workspace's HyperLogLog.
func (rc *RedisClient) ForgetVisitors(ctx context.Context, workspaceID string) error {
	return rc.client.Del(ctx, uniquesKey(workspaceID)).Err()
}
