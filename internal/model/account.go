package model

// Account holds one marketplace credential set plus the seller traits the
// bulk orchestrator needs (shipping mode decides how package dimensions
// are written).
type Account struct {
	Nickname        string `gorm:"column:nickname;primaryKey;size:255" json:"nickname"`
	AccessToken     string `gorm:"column:access_token;type:text" json:"-"`
	RefreshToken    string `gorm:"column:refresh_token;type:text" json:"-"`
	ExpiresAt       int64  `gorm:"column:expires_at" json:"expires_at"`
	SellerID        string `gorm:"column:seller_id;size:64" json:"seller_id"`
	ShippingMode    string `gorm:"column:shipping_mode;size:32" json:"shipping_mode"`
	ShippingType    string `gorm:"column:shipping_type;size:64;default:'me2_traditional'" json:"shipping_type"`
	OfficialStoreID int64  `gorm:"column:official_store_id" json:"official_store_id"`
}

func (Account) TableName() string {
	return "ml_accounts"
}
