package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every resource handler mounted under the API prefix.
type Handlers struct {
	Students    *StudentHandler
	Instructors *InstructorHandler
	Courses     *CourseHandler
	Enrollments *EnrollmentHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the system endpoints at the root and resources under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.GET("/metrics/summary", h.Metrics.Summary)

	api := r.Group(prefix)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.GET("/:id/transcript", h.Students.Transcript)

	instructors := api.Group("/instructors")
	instructors.GET("", h.Instructors.List)
	instructors.POST("", h.Instructors.Create)
	instructors.GET("/:id", h.Instructors.Get)
	instructors.PUT("/:id", h.Instructors.Update)
	instructors.DELETE("/:id", h.Instructors.Delete)

	courses := api.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.POST("", h.Courses.Create)
	courses.GET("/:id", h.Courses.Get)
	courses.PUT("/:id", h.Courses.Update)
	courses.DELETE("/:id", h.Courses.Delete)

	enrollments := api.Group("/enrollments")
	enrollments.GET("", h.Enrollments.List)
	enrollments.POST("", h.Enrollments.Create)
	enrollments.GET("/:id", h.Enrollments.Get)
	enrollments.DELETE("/:id", h.Enrollments.Delete)
	enrollments.PUT("/:id/grade", h.Enrollments.Grade)
	enrollments.DELETE("/:id/grade", h.Enrollments.ClearGrade)
}
