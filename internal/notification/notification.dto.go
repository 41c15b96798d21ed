package notification

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func ValidPlatform(platform string) bool {
	switch platform {
	case "ios", "android", "web":
		return true
	}
	return false
}
