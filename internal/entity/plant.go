package entity

// Plant is a water refill plant listing.
type Plant struct {
	Id        string  `json:"id" gorm:"column:id;primaryKey"`
	OwnerId   string  `json:"owner_id" gorm:"column:owner_id;index"`
	Name      string  `json:"name" gorm:"column:name"`
	Address   string  `json:"address" gorm:"column:address"`
	Latitude  float64 `json:"latitude" gorm:"column:latitude"`
	Longitude float64 `json:"longitude" gorm:"column:longitude"`
	Phone     string  `json:"phone" gorm:"column:phone"`
	Photos    string  `json:"photos" gorm:"column:photos;type:json"`
	Verified  bool    `json:"verified" gorm:"column:verified"`
	CreatedAt int64   `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Plant
func (Plant) TableName() string {
	return "plants"
}

// Notification is a persisted alert for an owner (new message, verification
// decision). Creation failures never roll back the triggering write.
type Notification struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	OwnerId   string `json:"owner_id" gorm:"column:owner_id;index"`
	Type      string `json:"type" gorm:"column:type"`
	Title     string `json:"title" gorm:"column:title"`
	Message   string `json:"message" gorm:"column:message"`
	ReadAt    *int64 `json:"read_at" gorm:"column:read_at"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// VerificationRequest tracks an owner's plant verification submission
// through admin review.
type VerificationRequest struct {
	Id          string `json:"id" gorm:"column:id;primaryKey"`
	PlantId     string `json:"plant_id" gorm:"column:plant_id;index"`
	OwnerId     string `json:"owner_id" gorm:"column:owner_id;index"`
	Status      string `json:"status" gorm:"column:status"`
	DocumentKey string `json:"document_key" gorm:"column:document_key"`
	ReviewNote  string `json:"review_note" gorm:"column:review_note"`
	ReviewedAt  *int64 `json:"reviewed_at" gorm:"column:reviewed_at"`
	CreatedAt   int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for VerificationRequest
func (VerificationRequest) TableName() string {
	return "verification_requests"
}
