package utils

import (
	"time"

	"github.com/golang/glog"
)

const HTTPReqTimeout = 30 * time.Second

var Settings = &Hub{timeout: HTTPReqTimeout}

// Hub holds the process wide settings which aren't part of any exchange.
type Hub struct {
	versionInfo string        // Version number etc. in free format as a string
	timeout     time.Duration // timeout setting for http requests and connections
}

func (h *Hub) VersionInfo() string {
	return h.versionInfo
}

func (h *Hub) SetVersionInfo(info string) {
	glog.V(3).Infoln("version:", info)
	h.versionInfo = info
}

func (h *Hub) Timeout() time.Duration {
	return h.timeout
}

func (h *Hub) SetTimeout(t time.Duration) {
	if t > 0 {
		h.timeout = t
	}
}
