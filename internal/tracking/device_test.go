package tracking

import (
	"testing"

	"github.com/ignite/open-tracker/internal/domain"
)

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		signature string
		want      domain.DeviceType
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", domain.DeviceMobile},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari", domain.DeviceMobile},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", domain.DeviceTablet},
		{"Mozilla/5.0 (Linux; Android 14; SM-X910) Tablet Mobile", domain.DeviceTablet},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", domain.DeviceDesktop},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2)", domain.DeviceDesktop},
		{"IPAD-app/2.1", domain.DeviceTablet},
		{"", domain.DeviceDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			got := ClassifyDevice(tt.signature)
			if got != tt.want {
				t.Errorf("ClassifyDevice(%q) = %q, want %q", tt.signature, got, tt.want)
			}
		})
	}
}
