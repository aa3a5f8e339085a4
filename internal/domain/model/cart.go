package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 1ユーザーにつきカートは1つ。
// TotalPrice は最後の更新時点の商品価格で計算した明細合計。
type Cart struct {
	UserID     int64           `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	Items      []CartItem      `gorm:"foreignKey:UserID;references:UserID" json:"items"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalPrice"`
	Version    int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt  time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updatedAt"`
}

// 明細を探す（無ければ -1）
func (c *Cart) IndexOf(productID int64) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone は明細スライスを共有しないコピーを返す。
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
