package audit

import (
	"context"

	"github.com/mssola/useragent"

	id "sportclub/pkg/domain"
	"sportclub/pkg/requestcontext"
)

// ClientInfo summarizes the caller's client. The raw User-Agent is not kept.
type ClientInfo struct {
	IP      string `json:"ip,omitempty"`
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Mobile  bool   `json:"mobile"`
	Bot     bool   `json:"bot"`
}

// ClientFromContext reads the client IP and parses the User-Agent stored by
// the metadata middleware.
func ClientFromContext(ctx context.Context) ClientInfo {
	info := ClientInfo{IP: requestcontext.ClientIP(ctx)}
	raw := requestcontext.UserAgent(ctx)
	if raw == "" {
		return info
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name != "" {
		info.Browser = name
		if version != "" {
			info.Browser += " " + version
		}
	}
	info.OS = ua.OS()
	info.Mobile = ua.Mobile()
	info.Bot = ua.Bot()
	return info
}

// NewEvent fills the request-scoped fields (time, request ID, client) of an event.
func NewEvent(ctx context.Context, action AuditEvent, userID id.UserID) Event {
	return Event{
		Action:    action,
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		RequestID: requestcontext.RequestID(ctx),
		Client:    ClientFromContext(ctx),
	}
}
