package repository

import (
	"context"

	"shopcart/internal/domain/model"
)

// CartRepository はカート1件（明細込み）を丸ごと読み書きする。
type CartRepository interface {
	// 無ければ ErrNotFound
	Load(ctx context.Context, userID int64) (model.Cart, error)

	// Save は保存済み version が expectedVersion と一致するときだけ書き込む。
	// expectedVersion == 0 は「まだ存在しない」ことを期待する。
	// 一致しなければ ErrVersionConflict。成功時は version を+1したカートを返す。
	// 1カート分の書き込みは原子的であること。
	Save(ctx context.Context, cart model.Cart, expectedVersion int64) (model.Cart, error)
}
