package domain

import "time"

// CollectionRecord 是用户自建的合集。
//
// VideoIDs 按值弱引用 VideoRecord.ID：集合语义（重复添加为 no-op），但保留插入顺序用于展示。
// 删除视频时由上层负责从所有合集剔除其 id；删除合集对视频没有任何影响。
type CollectionRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	VideoIDs    []string  `json:"video_ids"`
	DateCreated time.Time `json:"date_created"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
}

// Contains 判断 videoID 是否已在合集中。
func (c *CollectionRecord) Contains(videoID string) bool {
	for _, id := range c.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// AddVideoID 幂等地追加 videoID（已存在则保持原位置不动）。
// 返回值表示是否发生了变更。
func (c *CollectionRecord) AddVideoID(videoID string) bool {
	if c.Contains(videoID) {
		return false
	}
	c.VideoIDs = append(c.VideoIDs, videoID)
	return true
}

// RemoveVideoID 幂等地剔除 videoID，其余元素保持相对顺序。
// 返回值表示是否发生了变更。
func (c *CollectionRecord) RemoveVideoID(videoID string) bool {
	for i, id := range c.VideoIDs {
		if id == videoID {
			c.VideoIDs = append(c.VideoIDs[:i], c.VideoIDs[i+1:]...)
			return true
		}
	}
	return false
}
