package media

import (
	"time"

	"lostfound/internal/domain/item"
)

// Media is one uploaded photo stored as a full-size and a thumbnail object.
type Media struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	OwnerID      string    `gorm:"column:owner_id;index;not null" json:"owner_id"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	FullKey      string    `gorm:"column:full_key;not null" json:"-"`
	ThumbKey     string    `gorm:"column:thumb_key;not null" json:"-"`
	FullURL      string    `gorm:"column:full_url" json:"full_size_url"`
	ThumbURL     string    `gorm:"column:thumb_url" json:"thumbnail_url"`
	Width        int       `gorm:"column:width" json:"width"`
	Height       int       `gorm:"column:height" json:"height"`
	Size         int64     `gorm:"column:size" json:"size"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Media) TableName() string { return "media" }

// Image is the reference embedded in item records.
func (m *Media) Image() item.Image {
	return item.Image{
		ThumbnailURL: m.ThumbURL,
		FullSizeURL:  m.FullURL,
		MediaID:      m.ID,
	}
}
