package domain

import (
	"fmt"
	"time"
)

// ExpirationPolicy controls how a link stops being resolvable.
type ExpirationPolicy string

const (
	ExpirationNever       ExpirationPolicy = "never"
	ExpirationAfterClicks ExpirationPolicy = "clicks"
	ExpirationAfterTime   ExpirationPolicy = "time"
)

// Platform values used for app-store destination selection.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// Daytime window for dynamic links: [6, 18) local hours.
const (
	dayStartHour = 6
	dayEndHour   = 18
)

// DynamicLinkOptions holds the two destinations of a time-of-day link.
type DynamicLinkOptions struct {
	Day   string `gorm:"column:dynamic_day;type:text" json:"day"`
	Night string `gorm:"column:dynamic_night;type:text" json:"night"`
}

// AppStoreLinks holds the per-platform destinations of an app-store link.
type AppStoreLinks struct {
	IOS     string `gorm:"column:store_ios;type:text" json:"ios"`
	Android string `gorm:"column:store_android;type:text" json:"android"`
}

// LinkRecord is the durable unit of a shortened link, keyed by slug.
// The same struct is the cache payload: json tags define the wire shape,
// timestamps serialize as RFC3339 on both the read and write sites.
type LinkRecord struct {
	Slug             string           `gorm:"primaryKey;column:slug;size:128" json:"slug"`
	OriginalURL      string           `gorm:"column:original_url;type:text" json:"original_url"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ExpirationPolicy ExpirationPolicy `gorm:"column:expiration_policy;size:16;not null;default:never" json:"expiration_policy"`
	ClicksRemaining  *int64           `gorm:"column:clicks_remaining" json:"clicks_remaining,omitempty"`
	ExpiresAt        *time.Time       `gorm:"column:expires_at" json:"expires_at,omitempty"`
	IsOneTimeUse     bool             `gorm:"column:is_one_time_use;not null;default:false" json:"is_one_time_use"`
	PasswordHash     *string          `gorm:"column:password_hash;size:100" json:"password_hash,omitempty"`

	IsDynamicLink      bool               `gorm:"column:is_dynamic_link;not null;default:false" json:"is_dynamic_link"`
	DynamicLinkOptions DynamicLinkOptions `gorm:"embedded" json:"dynamic_link_options"`

	IsAppStoreLink bool          `gorm:"column:is_app_store_link;not null;default:false" json:"is_app_store_link"`
	AppStoreLinks  AppStoreLinks `gorm:"embedded" json:"app_store_links"`
}

// TableName returns the table name for GORM.
func (LinkRecord) TableName() string {
	return "links"
}

// ResolveContext carries the request-side facts destination selection
// depends on: the local hour of day and the caller's platform.
type ResolveContext struct {
	Hour     int    // local hour, 0-23
	Platform string // PlatformIOS or PlatformAndroid
}

// Destination is the result of policy evaluation. When RequiresPassword is
// set the URL is intentionally empty: the real destination must never leave
// the record before a password match.
type Destination struct {
	URL              string
	RequiresPassword bool
}

// MalformedRecordError reports a stored record whose active destination mode
// is missing its required sub-fields.
type MalformedRecordError struct {
	Slug   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed link record %q: %s", e.Slug, e.Reason)
}

// IsExpired reports whether a time-limited record is past its deadline.
// A time-limited record without a deadline is treated as expired (fail closed).
func (l *LinkRecord) IsExpired(now time.Time) bool {
	if l.ExpirationPolicy != ExpirationAfterTime {
		return false
	}
	if l.ExpiresAt == nil {
		return true
	}
	return !now.Before(*l.ExpiresAt)
}

// HasClicksRemaining reports whether a click-limited record can still be
// resolved. Records without a click limit always pass.
func (l *LinkRecord) HasClicksRemaining() bool {
	if l.ExpirationPolicy != ExpirationAfterClicks {
		return true
	}
	return l.ClicksRemaining != nil && *l.ClicksRemaining > 0
}

// IsPasswordProtected reports whether resolution must go through the
// password challenge before revealing a destination.
func (l *LinkRecord) IsPasswordProtected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// DestinationFor evaluates the destination policy for the given context.
// Precedence is fixed: password > dynamic > app-store > plain. The same
// evaluation runs on the cache-hit and store paths, so they cannot diverge.
func (l *LinkRecord) DestinationFor(rctx ResolveContext) (Destination, error) {
	if l.IsPasswordProtected() {
		return Destination{RequiresPassword: true}, nil
	}

	if l.IsDynamicLink {
		url := l.DynamicLinkOptions.Night
		if rctx.Hour >= dayStartHour && rctx.Hour < dayEndHour {
			url = l.DynamicLinkOptions.Day
		}
		if url == "" {
			return Destination{}, &MalformedRecordError{Slug: l.Slug, Reason: "dynamic link branch has no destination"}
		}
		return Destination{URL: url}, nil
	}

	if l.IsAppStoreLink {
		url := l.AppStoreLinks.Android
		if rctx.Platform == PlatformIOS {
			url = l.AppStoreLinks.IOS
		}
		if url == "" {
			return Destination{}, &MalformedRecordError{Slug: l.Slug, Reason: "app store link has no destination for platform " + rctx.Platform}
		}
		return Destination{URL: url}, nil
	}

	if l.OriginalURL == "" {
		return Destination{}, &MalformedRecordError{Slug: l.Slug, Reason: "record has no destination URL"}
	}
	return Destination{URL: l.OriginalURL}, nil
}
