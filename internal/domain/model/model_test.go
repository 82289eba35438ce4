package model_test

import (
	"testing"

	model "github.com/okian/resumatch/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRoleEmbeddingText(t *testing.T) {
	convey.Convey("Given a role", t, func() {
		convey.Convey("When requirements are present", func() {
			req := "Go, SQL"
			r := model.Role{Title: "Backend Engineer", Description: "Build services", Requirements: &req}

			convey.Convey("Then they are appended", func() {
				convey.So(r.EmbeddingText(), convey.ShouldEqual, "Backend Engineer Build services Go, SQL")
				convey.So(r.RequirementsText(), convey.ShouldEqual, req)
			})
		})

		convey.Convey("When requirements are absent", func() {
			r := model.Role{Title: "Designer", Description: "Draw things"}

			convey.Convey("Then only title and description are used", func() {
				convey.So(r.EmbeddingText(), convey.ShouldEqual, "Designer Draw things")
				convey.So(r.RequirementsText(), convey.ShouldEqual, "")
			})
		})
	})
}

func TestStatus(t *testing.T) {
	convey.Convey("Known statuses are valid", t, func() {
		convey.So(model.StatusPending.Valid(), convey.ShouldBeTrue)
		convey.So(model.StatusAnalyzed.Valid(), convey.ShouldBeTrue)
		convey.So(model.StatusFailed.Valid(), convey.ShouldBeTrue)
		convey.So(model.Status("processing").Valid(), convey.ShouldBeFalse)
	})
}
