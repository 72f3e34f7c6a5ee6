package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-agent/internal/model"
)

func TestPriorityStyle(t *testing.T) {
	assert.Equal(t, ColorRed, PriorityStyle(5).GetForeground())
	assert.Equal(t, ColorOrange, PriorityStyle(4).GetForeground())
	assert.Equal(t, ColorGray, PriorityStyle(0).GetForeground())
	assert.True(t, PriorityStyle(3).GetBold())
}

func TestCategoryStyle(t *testing.T) {
	assert.Equal(t, ColorRed, CategoryStyle(model.CategoryUrgent).GetForeground())
	assert.Equal(t, ColorMagenta, CategoryStyle(model.CategoryNewsletter).GetForeground())
	assert.Equal(t, CellStyle.GetForeground(), CategoryStyle(model.CategoryOther).GetForeground())
}
