package router

import (
	"github.com/aihub/answerai-go/app/controllers"
	"github.com/aihub/answerai-go/app/middleware"
	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Init registers all routes. Must be called after the registry is loaded.
func Init() {
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Handler("/metrics", promhttp.Handler())

	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSMiddleware)

	// 文档路由
	documentController := &controllers.DocumentController{}
	web.Router("/api/documents", documentController, "get:List;post:Create")
	// 注意：具体路由必须在参数路由之前，否则cache会被:id匹配
	web.Router("/api/documents/cache/stats", documentController, "get:CacheStats")
	web.Router("/api/documents/:id", documentController, "get:Get;delete:Delete")

	// 对话路由
	conversationController := &controllers.ConversationController{}
	web.Router("/api/conversations", conversationController, "get:List;post:Create")
	// 注意：具体路由必须在参数路由之前，否则active会被:id匹配
	web.Router("/api/conversations/active", conversationController, "get:GetActive;put:SetActive")
	web.Router("/api/conversations/:id", conversationController, "get:Get;delete:Delete")
	web.Router("/api/conversations/:id/files", conversationController, "put:SetActiveFiles")

	// 问答路由
	chatController := &controllers.ChatController{}
	web.Router("/api/chat/ask", chatController, "post:Ask")

	// 会话检索路由
	searchController := &controllers.SearchController{}
	web.Router("/api/search", searchController, "get:Search")
}
