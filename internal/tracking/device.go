package tracking

import (
	"strings"

	"github.com/ignite/open-tracker/internal/domain"
)

// ClassifyDevice maps a client signature (typically a User-Agent header) to
// a coarse device category. Tablets are checked first: iPad and Android
// tablet signatures often also contain "mobile".
func ClassifyDevice(signature string) domain.DeviceType {
	ua := strings.ToLower(signature)
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return domain.DeviceTablet
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android") {
		return domain.DeviceMobile
	}
	return domain.DeviceDesktop
}
