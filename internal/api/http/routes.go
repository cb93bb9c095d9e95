package http

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-training/internal/audit"
	"github.com/mind-engage/mindengage-training/internal/rbac"
	"github.com/mind-engage/mindengage-training/internal/superadmin"
	"github.com/mind-engage/mindengage-training/internal/training"
)

type Deps struct {
	Store   training.Store
	Console *superadmin.Service
	Records *superadmin.Records
	Audit   audit.Log
	Log     *zap.Logger
}

// Mount registers the protected API. The caller installs JWT and role
// middleware on pr first.
func Mount(pr chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	st, log := d.Store, d.Log

	pr.With(rbac.Require("program:view")).Get("/programs", ListProgramsHandler(st, log))
	pr.With(rbac.Require("program:create")).Post("/programs", CreateProgramHandler(st, log))
	pr.With(rbac.Require("program:view")).Get("/programs/{id}", GetProgramHandler(st, log))
	pr.With(rbac.Require("program:update")).Put("/programs/{id}", UpdateProgramHandler(st, log))
	pr.With(rbac.Require("program:delete")).Delete("/programs/{id}", DeleteProgramHandler(st, log))
	pr.With(rbac.Require("test:view")).Get("/programs/{id}/tests", ListProgramTestsHandler(st, log))
	pr.With(rbac.RequireAny("template:view", "checklist:submit")).
		Get("/programs/{id}/checklist-template", GetChecklistTemplateHandler(st, log))
	pr.With(rbac.Require("template:update")).Put("/programs/{id}/checklist-template", PutChecklistTemplateHandler(st, log))
	pr.With(rbac.RequireAny("template:view", "feedback:submit")).
		Get("/programs/{id}/feedback-template", GetFeedbackTemplateHandler(st, log))
	pr.With(rbac.Require("template:update")).Put("/programs/{id}/feedback-template", PutFeedbackTemplateHandler(st, log))

	pr.With(rbac.Require("company:view")).Get("/companies", ListCompaniesHandler(st, log))
	pr.With(rbac.Require("company:create")).Post("/companies", CreateCompanyHandler(st, log))
	pr.With(rbac.Require("company:view")).Get("/companies/{id}", GetCompanyHandler(st, log))
	pr.With(rbac.Require("company:update")).Put("/companies/{id}", UpdateCompanyHandler(st, log))
	pr.With(rbac.Require("company:delete")).Delete("/companies/{id}", DeleteCompanyHandler(st, log))

	pr.With(rbac.Require("session:view")).Get("/sessions", ListSessionsHandler(st, log))
	pr.With(rbac.Require("session:create")).Post("/sessions", CreateSessionHandler(st, log))
	pr.With(rbac.Require("session:view")).Get("/sessions/{id}", GetSessionHandler(st, log))
	pr.With(rbac.Require("session:update")).Put("/sessions/{id}", UpdateSessionHandler(st, log))
	pr.With(rbac.Require("session:delete")).Delete("/sessions/{id}", DeleteSessionHandler(st, log))
	pr.With(rbac.Require("session:view")).Get("/sessions/{id}/participants", ListParticipantsHandler(st, log))
	pr.With(rbac.RequireAny("result:view-all", "attendance:record")).
		Get("/sessions/{id}/participants/{pid}/vehicle-details", GetVehicleDetailsHandler(st, log))
	pr.With(rbac.Require("session:enroll")).Post("/sessions/{id}/participants", AddParticipantsHandler(st, log))
	pr.With(rbac.Require("result:view-all")).Get("/sessions/{id}/results-summary", ResultsSummaryHandler(st, log))

	pr.With(rbac.Require("test:create")).Post("/tests", PutTestHandler(st, log))
	pr.With(rbac.Require("test:view")).Get("/tests/{id}", GetTestHandler(st, log))
	pr.With(rbac.Require("test:submit")).Post("/tests/{id}/submit", SubmitTestHandler(st, log))
	pr.With(rbac.RequireAny("result:view-own", "result:view-all")).Get("/tests/results/{id}", GetTestResultHandler(st, log))
	pr.With(rbac.Require("result:view-all")).Get("/feedback/session/{id}", ListSessionFeedbackHandler(st, log))
	pr.With(rbac.RequireOwnerOr("result:view-all", IsSelf)).
		Get("/participants/{id}/results", ListParticipantResultsHandler(st, log))

	pr.With(rbac.Require("users:bulk_upsert")).Post("/users/bulk", BulkUpsertUsersHandler(st, log))
	pr.With(rbac.Require("users:list")).Get("/users", ListUsersHandler(st, log))
	pr.With(rbac.Require("user:change_password")).Post("/users/change-password", ChangePasswordHandler(st, log))
	pr.With(rbac.Require("users:update_role")).Patch("/admin/users/{userID}", AdminUpdateUserRoleHandler(st, log))

	if d.Audit != nil {
		pr.With(rbac.Require("audit:view")).Get("/admin/audit-logs/{key}", AuditLogsHandler(d.Audit, log))
	}

	if d.Console != nil {
		pr.With(rbac.Require("checklist:submit")).Post("/checklists", SubmitChecklistHandler(d.Console, log))
		pr.With(rbac.RequireAny("attendance:record", "superadmin:console")).Post("/attendance", RecordAttendanceHandler(d.Console, log))
		pr.With(rbac.Require("feedback:submit")).Post("/feedback", PortalFeedbackHandler(d.Console, log))

		pr.Route("/super-admin", func(sr chi.Router) {
			sr.Use(rbac.Require("superadmin:console"))
			sr.Get("/sessions", ActiveSessionsHandler(d.Console, log))
			sr.Get("/sessions/{id}/overview", SessionOverviewHandler(d.Console, log))
			sr.Post("/tests/inject", InjectTestHandler(d.Console, log))
			sr.Post("/attendance", RecordAttendanceHandler(d.Console, log))
			sr.Post("/vehicle-details", SaveVehicleDetailsHandler(d.Console, log))
			sr.Post("/checklist/submit", SubmitChecklistHandler(d.Console, log))
			sr.Post("/feedback/submit", SubmitFeedbackHandler(d.Console, log))
		})
	}

	if d.Records != nil {
		pr.Route("/admin/data-management", func(dr chi.Router) {
			dr.Use(rbac.Require("data:manage"))
			for _, kind := range []string{superadmin.KindTestResults, superadmin.KindAttendance, superadmin.KindChecklists, superadmin.KindFeedback} {
				dr.Get("/"+kind, ListRecordsHandler(d.Records, kind, log))
				dr.Delete("/"+kind+"/{id}", DeleteRecordHandler(d.Records, kind, log))
			}
			dr.Put("/"+superadmin.KindTestResults+"/{id}", EditTestResultHandler(d.Records, log))
			dr.Put("/"+superadmin.KindAttendance+"/{id}", EditAttendanceHandler(d.Records, log))
			dr.Put("/"+superadmin.KindChecklists+"/{id}", EditChecklistHandler(d.Records, log))
			dr.Put("/"+superadmin.KindFeedback+"/{id}", EditFeedbackHandler(d.Records, log))
			dr.Get("/audit-logs/{kind}/{id}", RecordHistoryHandler(d.Records, log))
		})
	}
}
