package entity

// Consumer is a marketplace consumer account. DisplayName is the only
// name ever shown to owners; Name stays private to the consumer and the
// admin surface.
type Consumer struct {
	Id                  string `json:"id" gorm:"column:id;primaryKey"`
	Email               string `json:"email" gorm:"column:email;uniqueIndex"`
	Password            string `json:"-" gorm:"column:password"`
	Name                string `json:"name" gorm:"column:name"`
	DisplayName         string `json:"display_name" gorm:"column:display_name"`
	Phone               string `json:"phone" gorm:"column:phone"`
	ReadReceiptsEnabled bool   `json:"read_receipts_enabled" gorm:"column:read_receipts_enabled;default:true"`
	CreatedAt           int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt           int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Consumer
func (Consumer) TableName() string {
	return "consumers"
}

// Owner is a plant owner account.
type Owner struct {
	Id                  string `json:"id" gorm:"column:id;primaryKey"`
	Email               string `json:"email" gorm:"column:email;uniqueIndex"`
	Password            string `json:"-" gorm:"column:password"`
	Name                string `json:"name" gorm:"column:name"`
	Phone               string `json:"phone" gorm:"column:phone"`
	ReadReceiptsEnabled bool   `json:"read_receipts_enabled" gorm:"column:read_receipts_enabled;default:true"`
	CreatedAt           int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt           int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Owner
func (Owner) TableName() string {
	return "owners"
}

// Admin is an oversight account with full chat observability.
type Admin struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	Email     string `json:"email" gorm:"column:email;uniqueIndex"`
	Password  string `json:"-" gorm:"column:password"`
	Name      string `json:"name" gorm:"column:name"`
	Role      string `json:"role" gorm:"column:role"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for Admin
func (Admin) TableName() string {
	return "admins"
}

// AccountInfo is the public account projection (no password).
type AccountInfo struct {
	Id                  string `json:"id"`
	Email               string `json:"email"`
	Name                string `json:"name"`
	DisplayName         string `json:"display_name,omitempty"`
	Phone               string `json:"phone,omitempty"`
	ReadReceiptsEnabled bool   `json:"read_receipts_enabled"`
	CreatedAt           int64  `json:"created_at"`
}

// ToAccountInfo converts Consumer to AccountInfo
func (c *Consumer) ToAccountInfo() *AccountInfo {
	return &AccountInfo{
		Id:                  c.Id,
		Email:               c.Email,
		Name:                c.Name,
		DisplayName:         c.DisplayName,
		Phone:               c.Phone,
		ReadReceiptsEnabled: c.ReadReceiptsEnabled,
		CreatedAt:           c.CreatedAt,
	}
}

// ToAccountInfo converts Owner to AccountInfo
func (o *Owner) ToAccountInfo() *AccountInfo {
	return &AccountInfo{
		Id:                  o.Id,
		Email:               o.Email,
		Name:                o.Name,
		Phone:               o.Phone,
		ReadReceiptsEnabled: o.ReadReceiptsEnabled,
		CreatedAt:           o.CreatedAt,
	}
}
