package useragent

import (
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps the User-Agent parser for device/browser classification in
// resolution logs. Destination selection does not depend on it; see Platform.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo represents parsed device information.
type DeviceInfo struct {
	DeviceType string // mobile, desktop, tablet, unknown
	Browser    string
	OS         string
}

// NewParser creates a parser from the regex definitions compiled into uap-go.
func NewParser(log *zap.Logger) *Parser {
	return &Parser{
		parser: uaparser.NewFromSaved(),
		log:    log,
	}
}

// Parse classifies a User-Agent string for logging purposes.
func (p *Parser) Parse(userAgent string) *DeviceInfo {
	if userAgent == "" {
		return &DeviceInfo{DeviceType: "unknown", Browser: "unknown", OS: "unknown"}
	}

	client := p.parser.Parse(userAgent)

	info := &DeviceInfo{
		Browser: orUnknown(client.UserAgent.Family),
		OS:      orUnknown(client.Os.Family),
	}

	switch {
	case strings.Contains(userAgent, "iPad") || strings.Contains(client.Device.Family, "Tablet"):
		info.DeviceType = "tablet"
	case isMobileOS(client.Os.Family):
		info.DeviceType = "mobile"
	case client.Os.Family != "" && client.Os.Family != "Other":
		info.DeviceType = "desktop"
	default:
		info.DeviceType = "unknown"
	}

	return info
}

// Platform decides which app-store destination a caller gets: iPhone, iPad
// and iPod user agents (case-insensitive) map to ios, everything else to
// android.
func Platform(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, marker := range []string{"iphone", "ipad", "ipod"} {
		if strings.Contains(ua, marker) {
			return "ios"
		}
	}
	return "android"
}

func isMobileOS(osFamily string) bool {
	for _, os := range []string{"iOS", "Android", "Windows Phone", "BlackBerry OS"} {
		if strings.Contains(osFamily, os) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
