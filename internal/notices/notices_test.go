package notices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore(t *testing.T) {
	s := NewStore()
	s.Add("u1", Notice{ID: "comment-notice-1", Status: "success", Text: "approved"})
	s.Add("u1", Notice{ID: "plugin-notice", Status: "info"})
	s.Add("u1", Notice{ID: "comment-notice-2", Status: "success"})
	s.Add("u1", Notice{ID: "comment-notice-1", Status: "success", Text: "trashed"})
	s.Add("u2", Notice{ID: "comment-notice-9"})

	list := s.List("u1")
	assert.Len(t, list, 3)
	assert.Equal(t, "trashed", list[0].Text)

	assert.Equal(t, 2, s.RemoveByPrefix("u1", "comment-notice"))
	assert.Equal(t, []Notice{{ID: "plugin-notice", Status: "info"}}, s.List("u1"))
	assert.Len(t, s.List("u2"), 1, "other owners untouched")

	assert.True(t, s.Remove("u1", "plugin-notice"))
	assert.False(t, s.Remove("u1", "plugin-notice"))
	assert.Empty(t, s.List("u1"))
}
