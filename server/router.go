package server

import (
	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/server/handles"
)

func Init(e *gin.Engine) {
	api := e.Group("/api")

	task := api.Group("/task")
	task.POST("/enqueue", handles.Enqueue)
	task.GET("/list", handles.ListTasks)
	task.GET("/count", handles.CountTasks)
	task.POST("/reset", handles.ResetTasks)
	task.POST("/delete", handles.DeleteTasks)
	task.POST("/clear", handles.ClearTasks)
	task.POST("/clear_by_type", handles.ClearTasksByType)
	task.POST("/clear_by_type_status", handles.ClearTasksByTypeAndStatus)
	task.POST("/wake", handles.WakeWorker)
	task.GET("/price_check_status", handles.PriceCheckStatus)

	fixed := api.Group("/fixed_price")
	fixed.POST("/save", handles.SaveFixedPrice)
	fixed.POST("/delete", handles.DeleteFixedPrice)
	fixed.GET("/list", handles.ListFixedPrices)

	account := api.Group("/account")
	account.POST("/save", handles.SaveAccount)
	account.GET("/list", handles.ListAccounts)
	account.POST("/delete", handles.DeleteAccount)

	profile := api.Group("/profile")
	profile.POST("/save", handles.SaveProfile)
	profile.GET("/list", handles.ListProfiles)
	profile.GET("/get", handles.GetProfile)
	profile.POST("/delete", handles.DeleteProfile)

	rule := api.Group("/pricing_rule")
	rule.POST("/save", handles.SavePricingRule)
	rule.GET("/list", handles.ListPricingRules)
	rule.POST("/delete", handles.DeletePricingRule)

	competitor := api.Group("/competitor")
	competitor.GET("/list", handles.ListCompetitors)
	competitor.POST("/delete", handles.DeleteCompetitor)

	history := api.Group("/history")
	history.GET("/list", handles.ListModifiedAds)
	history.POST("/clear", handles.ClearModifiedAds)
}
