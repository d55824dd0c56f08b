package controllers

import (
	"github.com/BerniceZTT/lead_end/service"
)

// svcs 服务集合，由main在启动时注入
var svcs *service.Services

// Init 注入服务集合
func Init(s *service.Services) {
	svcs = s
}
