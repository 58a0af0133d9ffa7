package controllers

import (
	"github.com/aihub/answerai-go/internal/search"
	"github.com/aihub/answerai-go/internal/services"
	"go.uber.org/dig"
)

// ServiceRegistry 控制器使用的服务集合。
// Beego按请求重建控制器实例，服务只能在启动时装入包级注册表，
// 由各控制器的Prepare解析
type ServiceRegistry struct {
	Documents     *services.DocumentService
	Conversations *services.ConversationService
	Chat          *services.ChatService
	SearchEngine  *search.Engine
}

var registry ServiceRegistry

// InitRegistry 从依赖注入容器装载服务
func InitRegistry(container *dig.Container) error {
	return container.Invoke(func(
		documents *services.DocumentService,
		conversations *services.ConversationService,
		chat *services.ChatService,
		engine *search.Engine,
	) {
		registry = ServiceRegistry{
			Documents:     documents,
			Conversations: conversations,
			Chat:          chat,
			SearchEngine:  engine,
		}
	})
}
