package handler

import (
	"provchat/internal/app/chat"
	"provchat/internal/configs"
	"provchat/internal/pkg/limiter"
)

// AppDeps carries what the handlers need. The caller owns HandshakeLimiter
// and stops it on shutdown.
type AppDeps struct {
	Hub              *chat.Hub
	Config           *configs.AppConfig
	HandshakeLimiter *limiter.IPRateLimiter
}
