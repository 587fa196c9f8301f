package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidgetKey(t *testing.T) {
	assert.Equal(t, "stats:7d", widgetKey("stats", "7d"))
	assert.Equal(t, "stats:1m", widgetKey("stats", ""))
	assert.Equal(t, "stats:1m", widgetKey("stats", "bogus"))
	assert.Equal(t, "stats:1m", widgetKey("stats", "1m; DROP"))
}
