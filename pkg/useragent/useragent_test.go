package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPlatform(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "iphone",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15",
			want: "ios",
		},
		{
			name: "ipad",
			ua:   "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15",
			want: "ios",
		},
		{
			name: "ipod",
			ua:   "Mozilla/5.0 (iPod touch; CPU iPhone OS 15_0 like Mac OS X)",
			want: "ios",
		},
		{
			name: "case insensitive marker",
			ua:   "some client (IPHONE)",
			want: "ios",
		},
		{
			name: "android phone",
			ua:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36",
			want: "android",
		},
		{
			name: "desktop defaults to android",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			want: "android",
		},
		{
			name: "macintosh is not ios",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
			want: "android",
		},
		{
			name: "empty user agent",
			ua:   "",
			want: "android",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Platform(tt.ua))
		})
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(zap.NewNop())

	info := p.Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.Equal(t, "mobile", info.DeviceType)
	assert.Equal(t, "iOS", info.OS)

	info = p.Parse("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Equal(t, "desktop", info.DeviceType)
	assert.Equal(t, "Chrome", info.Browser)

	info = p.Parse("Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15")
	assert.Equal(t, "tablet", info.DeviceType)

	info = p.Parse("")
	assert.Equal(t, "unknown", info.DeviceType)
	assert.Equal(t, "unknown", info.Browser)
	assert.Equal(t, "unknown", info.OS)
}
