package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
)

// Routes bundles the handlers mounted under the API prefix.
type Routes struct {
	Periods   *PeriodHandler
	Timetable *TimetableHandler
	Auth      middleware.TokenValidator
}

// Register mounts the timetable API on group. Every route requires a token; reads are
// open to teachers, mutations to administrators.
func (r Routes) Register(group *gin.RouterGroup) {
	group.Use(middleware.JWT(r.Auth))
	read := middleware.RequireRoles(middleware.TimetableReaders...)
	write := middleware.RequireRoles(middleware.TimetableManagers...)

	group.GET("/timetable/durations", read, r.Periods.Durations)

	classes := group.Group("/class-instances/:id")
	classes.GET("/periods", read, r.Periods.List)
	classes.POST("/periods", write, r.Periods.Create)

	classes.GET("/timetable", read, r.Timetable.List)
	classes.GET("/timetable/day", read, r.Timetable.Day)
	classes.GET("/timetable/day/export", read, r.Timetable.ExportDay)
	classes.GET("/timetable/month", read, r.Timetable.Month)
	classes.POST("/timetable/copy", write, r.Timetable.CopyDay)
	classes.PUT("/timetable/:date/periods/:number", write, r.Timetable.Assign)
}
