package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Catalogs(t *testing.T) {
	assert.Equal(t, []string{"en", "zh"}, Locales())
	for id := range catalogs[DefaultLocale] {
		assert.Contains(t, catalogs["zh"], id, "zh catalog is missing %s", id)
	}
}

func TestMessage_Formatting(t *testing.T) {
	assert.Contains(t, Message("en", MsgLargeChange, 301), "(301 lines)")
	assert.Equal(t, "此文件添加了大量代码(301行)，建议拆分为更小的提交", Message("zh", MsgLargeChange, 301))
}

func TestMessage_Fallbacks(t *testing.T) {
	assert.Equal(t, Message("en", MsgEval), Message("de", MsgEval))
	assert.Equal(t, Message("en", MsgEval), Message("", MsgEval))
	assert.Equal(t, "no-such-id", Message("en", MessageID("no-such-id")))
	assert.True(t, SupportedLocale("zh"))
	assert.False(t, SupportedLocale("fr"))
}
