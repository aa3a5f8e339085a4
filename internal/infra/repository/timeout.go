package repository

import (
	"context"
	"time"
)

// 1回の読み書きの上限（0なら呼び出し元のctxのまま）
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
