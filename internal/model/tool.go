package model

// Tool 门户工具条目
// ID 由数据库分配，持久化之前为 0
type Tool struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Slug        string `gorm:"size:100;not null;uniqueIndex"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text;not null"`
	TargetPath  string `gorm:"size:2048;not null"` // 绝对 URL 或前端内部路径
}

// TableName 沿用既有部署中的表名
func (Tool) TableName() string {
	return "tool"
}
