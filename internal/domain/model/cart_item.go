package model

// カートの明細。同じカートに同じ商品は1行だけ。
type CartItem struct {
	UserID    int64 `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ProductID int64 `gorm:"primaryKey;autoIncrement:false" json:"productId"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
}
