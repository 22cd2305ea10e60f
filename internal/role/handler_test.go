package role_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/activitylog"
	activityPostgres "github.com/frahmantamala/role-permission-api/internal/activitylog/postgres"
	activityDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/activitylog"
	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
	"github.com/frahmantamala/role-permission-api/internal/core/events"
	"github.com/frahmantamala/role-permission-api/internal/permission"
	permissionPostgres "github.com/frahmantamala/role-permission-api/internal/permission/postgres"
	"github.com/frahmantamala/role-permission-api/internal/role"
	rolePostgres "github.com/frahmantamala/role-permission-api/internal/role/postgres"
	"github.com/frahmantamala/role-permission-api/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Meta   transport.Meta  `json:"meta"`
	Result json.RawMessage `json:"result"`
	Errors json.RawMessage `json:"errors"`
}

var _ = Describe("Role Handler Integration", func() {
	var (
		db          *gorm.DB
		router      chi.Router
		permissions *permission.Service
		permIDs     map[string]int64
		slogger     *slog.Logger
	)

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(rbacDatamodel.AutoMigrate(db)).To(Succeed())
		Expect(activityDatamodel.AutoMigrate(db)).To(Succeed())

		permRepo := permissionPostgres.NewPermissionRepository(db)
		permissions = permission.NewService(permRepo, "web", slogger)
		audit := activitylog.NewService(activityPostgres.NewActivityLogRepository(db), events.NewEventBus(slogger), false, slogger)
		service := role.NewService(rolePostgres.NewRoleRepository(db), permRepo, "web", slogger)
		baseHandler := &transport.BaseHandler{Logger: slogger}
		handler := role.NewHandler(baseHandler, service, audit)

		router = chi.NewRouter()
		router.Post("/roles", handler.CreateRoles)
		router.Get("/roles", handler.GetAllRoles)
		router.Get("/roles/with-permissions", handler.GetRolesWithPermissions)
		router.Get("/roles/{id}", handler.GetRoleByID)
		router.Put("/roles/{id}", handler.UpdateRole)
		router.Delete("/roles/{id}", handler.DeleteRole)
		router.Get("/roles/{id}/permissions", handler.GetRoleWithPermissions)
		router.Post("/roles/{id}/permissions", handler.AssignPermissions)
		router.Put("/roles/{id}/permissions", handler.UpdateRoleWithPermissions)
		router.Delete("/roles/{role_id}/permissions", handler.DetachPermissions)

		created, err := permissions.CreateMany(context.Background(), []permission.CreatePermissionDTO{
			{Name: "view_users"},
			{Name: "edit_users"},
			{Name: "delete_users"},
		})
		Expect(err).NotTo(HaveOccurred())
		permIDs = map[string]int64{}
		for _, p := range created {
			permIDs[p.Name] = p.ID
		}
	})

	do := func(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
		var reader *bytes.Reader
		switch b := body.(type) {
		case nil:
			reader = bytes.NewReader(nil)
		case string:
			reader = bytes.NewReader([]byte(b))
		default:
			raw, err := json.Marshal(b)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}

		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(internal.ContextWithPrincipal(req.Context(), &internal.Principal{ID: "42"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var env envelope
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		Expect(env.Meta.Code).To(Equal(w.Code))
		return w, env
	}

	createRole := func(name string, perms ...string) role.Summary {
		w, env := do(http.MethodPost, "/roles", []map[string]interface{}{{"name": name, "permissions": perms}})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var summaries []role.Summary
		Expect(json.Unmarshal(env.Result, &summaries)).To(Succeed())
		Expect(summaries).To(HaveLen(1))
		return summaries[0]
	}

	auditEvents := func() []string {
		var rows []activityDatamodel.ActivityLog
		Expect(db.Order("id ASC").Find(&rows).Error).To(Succeed())
		labels := make([]string, 0, len(rows))
		for _, row := range rows {
			labels = append(labels, row.Event)
		}
		return labels
	}

	rolePath := func(id int64, suffix string) string {
		return "/roles/" + strconv.FormatInt(id, 10) + suffix
	}

	It("should create a role and reject the same request again", func() {
		body := `[{"name":"Admin","permissions":["view_users"]}]`

		w, env := do(http.MethodPost, "/roles", body)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(env.Meta.Success).To(BeTrue())
		Expect(env.Meta.Message).To(Equal("Roles created successfully."))

		var summaries []role.Summary
		Expect(json.Unmarshal(env.Result, &summaries)).To(Succeed())
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].Name).To(Equal("Admin"))
		Expect(summaries[0].Permissions).To(Equal([]string{"view_users"}))
		Expect(string(env.Errors)).To(Equal("[]"))

		w, env = do(http.MethodPost, "/roles", body)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(env.Meta.Success).To(BeFalse())

		var fields map[string][]string
		Expect(json.Unmarshal(env.Errors, &fields)).To(Succeed())
		Expect(fields).To(HaveKeyWithValue("0.name", ContainElement("The 0.name has already been taken.")))

		var count int64
		Expect(db.Model(&rbacDatamodel.Role{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
		Expect(auditEvents()).To(Equal([]string{"Roles Created", "Role Validation Failed"}))
	})

	It("should store the acting principal on audit entries", func() {
		createRole("Admin", "view_users")

		var row activityDatamodel.ActivityLog
		Expect(db.First(&row).Error).To(Succeed())
		Expect(row.LogName).To(Equal(role.LogName))
		Expect(row.CauserID).NotTo(BeNil())
		Expect(*row.CauserID).To(Equal("42"))
		Expect(row.Properties).To(HaveKey("ip_address"))
	})

	It("should reject a role without permissions and store nothing", func() {
		w, _ := do(http.MethodPost, "/roles", `[{"name":"Empty","permissions":[]}]`)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))

		var count int64
		Expect(db.Model(&rbacDatamodel.Role{}).Count(&count).Error).To(Succeed())
		Expect(count).To(BeZero())
	})

	It("should reject a malformed body", func() {
		w, env := do(http.MethodPost, "/roles", `{"name":`)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(string(env.Errors)).To(ContainSubstring("payload"))
	})

	It("should return the permissions a role was created with", func() {
		admin := createRole("Admin", "view_users", "edit_users")

		w, env := do(http.MethodGet, rolePath(admin.ID, ""), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Meta.Message).To(Equal("Role details retrieved successfully."))

		var summary role.Summary
		Expect(json.Unmarshal(env.Result, &summary)).To(Succeed())
		Expect(summary.Permissions).To(ConsistOf("edit_users", "view_users"))

		w, env = do(http.MethodGet, rolePath(admin.ID, "/permissions"), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var full role.Role
		Expect(json.Unmarshal(env.Result, &full)).To(Succeed())
		Expect(full.GuardName).To(Equal("web"))
		Expect(full.PermissionNames()).To(ConsistOf("edit_users", "view_users"))
	})

	It("should list roles in both shapes", func() {
		createRole("Admin", "view_users")
		createRole("Viewer", "view_users")

		w, env := do(http.MethodGet, "/roles", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var summaries []role.Summary
		Expect(json.Unmarshal(env.Result, &summaries)).To(Succeed())
		Expect(summaries).To(HaveLen(2))

		w, env = do(http.MethodGet, "/roles/with-permissions", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var roles []role.Role
		Expect(json.Unmarshal(env.Result, &roles)).To(Succeed())
		Expect(roles).To(HaveLen(2))
		Expect(roles[0].Permissions).To(HaveLen(1))
		Expect(roles[0].Permissions[0].Name).To(Equal("view_users"))
	})

	It("should report a missing role with a reason", func() {
		w, env := do(http.MethodGet, "/roles/999", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(env.Meta.Message).To(Equal("Role not found."))

		var reasons []string
		Expect(json.Unmarshal(env.Errors, &reasons)).To(Succeed())
		Expect(reasons).To(Equal([]string{"The specified role does not exist."}))
		Expect(auditEvents()).To(Equal([]string{"Role Not Found"}))
	})

	It("should treat a non-numeric id as not found", func() {
		w, _ := do(http.MethodGet, "/roles/abc", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should grant permissions by name without duplicating them", func() {
		admin := createRole("Admin", "view_users")
		body := map[string]interface{}{"permissions": []string{"edit_users"}}

		w, _ := do(http.MethodPost, rolePath(admin.ID, "/permissions"), body)
		Expect(w.Code).To(Equal(http.StatusOK))
		w, env := do(http.MethodPost, rolePath(admin.ID, "/permissions"), body)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Meta.Message).To(Equal("Permissions assigned successfully."))

		var summary role.Summary
		Expect(json.Unmarshal(env.Result, &summary)).To(Succeed())
		Expect(summary.Permissions).To(ConsistOf("view_users", "edit_users"))

		var joins int64
		Expect(db.Model(&rbacDatamodel.RolePermission{}).Where("role_id = ?", admin.ID).Count(&joins).Error).To(Succeed())
		Expect(joins).To(Equal(int64(2)))
	})

	It("should revoke permissions by id and ignore ones not held", func() {
		admin := createRole("Admin", "view_users", "edit_users")

		w, env := do(http.MethodDelete, rolePath(admin.ID, "/permissions"),
			map[string]interface{}{"permissions": []int64{permIDs["edit_users"], permIDs["delete_users"]}})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Meta.Message).To(Equal("Permissions detached successfully."))
		Expect(string(env.Result)).To(Equal("[]"))

		w, env = do(http.MethodGet, rolePath(admin.ID, ""), nil)
		var summary role.Summary
		Expect(json.Unmarshal(env.Result, &summary)).To(Succeed())
		Expect(summary.Permissions).To(Equal([]string{"view_users"}))
	})

	It("should report a missing role on revoke without a reason", func() {
		w, env := do(http.MethodDelete, "/roles/999/permissions",
			map[string]interface{}{"permissions": []int64{permIDs["view_users"]}})
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(string(env.Errors)).To(Equal("[]"))
	})

	It("should update metadata and keep the permission set", func() {
		admin := createRole("Admin", "view_users")

		w, env := do(http.MethodPut, rolePath(admin.ID, ""), map[string]interface{}{"name": "Administrator"})
		Expect(w.Code).To(Equal(http.StatusOK))

		var details role.Details
		Expect(json.Unmarshal(env.Result, &details)).To(Succeed())
		Expect(details.Name).To(Equal("Administrator"))
		Expect(details.GuardName).To(Equal("web"))

		w, env = do(http.MethodPut, rolePath(admin.ID, ""), map[string]interface{}{"name": "Administrator"})
		Expect(w.Code).To(Equal(http.StatusOK))

		_, env = do(http.MethodGet, rolePath(admin.ID, ""), nil)
		var summary role.Summary
		Expect(json.Unmarshal(env.Result, &summary)).To(Succeed())
		Expect(summary.Permissions).To(Equal([]string{"view_users"}))
	})

	It("should replace the permission set on a combined update", func() {
		admin := createRole("Admin", "view_users", "edit_users")
		body := map[string]interface{}{
			"name":        "Admin",
			"permissions": []int64{permIDs["edit_users"], permIDs["delete_users"]},
		}

		w, _ := do(http.MethodPut, rolePath(admin.ID, "/permissions"), body)
		Expect(w.Code).To(Equal(http.StatusOK))
		w, env := do(http.MethodPut, rolePath(admin.ID, "/permissions"), body)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Meta.Message).To(Equal("Role updated and permissions updated successfully."))

		var synced struct {
			Name        string   `json:"name"`
			Permissions []string `json:"permissions"`
			UpdatedAt   string   `json:"updated_at"`
		}
		Expect(json.Unmarshal(env.Result, &synced)).To(Succeed())
		Expect(synced.Permissions).To(ConsistOf("edit_users", "delete_users"))
		Expect(synced.UpdatedAt).NotTo(BeEmpty())
	})

	It("should reject unknown permission ids on a combined update", func() {
		admin := createRole("Admin", "view_users")

		w, env := do(http.MethodPut, rolePath(admin.ID, "/permissions"),
			map[string]interface{}{"name": "Admin", "permissions": []int64{9999}})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(string(env.Errors)).To(ContainSubstring("permissions.0"))
	})

	It("should delete a role and its assignments", func() {
		admin := createRole("Admin", "view_users")

		w, env := do(http.MethodDelete, rolePath(admin.ID, ""), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Meta.Message).To(Equal("Role deleted successfully."))

		var joins int64
		Expect(db.Model(&rbacDatamodel.RolePermission{}).Count(&joins).Error).To(Succeed())
		Expect(joins).To(BeZero())

		w, _ = do(http.MethodDelete, rolePath(admin.ID, ""), nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should drop a deleted permission from the roles that held it", func() {
		admin := createRole("Admin", "view_users", "edit_users")

		_, err := permissions.Delete(context.Background(), permIDs["edit_users"])
		Expect(err).NotTo(HaveOccurred())

		w, env := do(http.MethodGet, rolePath(admin.ID, ""), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var summary role.Summary
		Expect(json.Unmarshal(env.Result, &summary)).To(Succeed())
		Expect(summary.Name).To(Equal("Admin"))
		Expect(summary.Permissions).To(Equal([]string{"view_users"}))
	})
})
