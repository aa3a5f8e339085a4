package model

import "github.com/shopspring/decimal"

// 保存先の列（numeric(12,2) / numeric(14,2)）に収まる上限。どちらも未満で判定する。
var (
	MaxUnitPrice  = decimal.New(1, 10)
	MaxTotalPrice = decimal.New(1, 12)
)

// 1明細の数量上限
const MaxItemQuantity int64 = 1_000_000
