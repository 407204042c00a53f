package models

import "time"

type Site struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

type Comment struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	PostID    int64     `json:"post_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Status    string    `json:"status"` // "unapproved", "approved", "spam", "trash"
	CreatedAt time.Time `json:"created_at"`
}
