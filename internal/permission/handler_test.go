package permission_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/frahmantamala/role-permission-api/internal/activitylog"
	activityPostgres "github.com/frahmantamala/role-permission-api/internal/activitylog/postgres"
	activityDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/activitylog"
	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
	"github.com/frahmantamala/role-permission-api/internal/core/events"
	"github.com/frahmantamala/role-permission-api/internal/permission"
	permissionPostgres "github.com/frahmantamala/role-permission-api/internal/permission/postgres"
	"github.com/frahmantamala/role-permission-api/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Permission Handler Integration", func() {
	var (
		db      *gorm.DB
		router  chi.Router
		slogger *slog.Logger
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

		service := permission.NewService(permissionPostgres.NewPermissionRepository(db), "web", slogger)
		audit := activitylog.NewService(activityPostgres.NewActivityLogRepository(db), events.NewEventBus(slogger), false, slogger)
		baseHandler := &transport.BaseHandler{Logger: slogger}
		handler := permission.NewHandler(baseHandler, service, audit)

		router = chi.NewRouter()
		router.Post("/permissions", handler.CreatePermissions)
		router.Get("/permissions", handler.GetAllPermissions)
		router.Delete("/permissions", handler.DeletePermissions)
		router.Get("/permissions/{id}", handler.GetPermissionByID)
		router.Put("/permissions/{id}", handler.UpdatePermission)
		router.Delete("/permissions/{id}", handler.DeletePermission)
	})

	do := func(method, path, body string) (*httptest.ResponseRecorder, transport.Envelope) {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var env transport.Envelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return w, env
	}

	seed := func(names ...string) []int64 {
		var ids []int64
		for _, name := range names {
			row := &rbacDatamodel.Permission{Name: name, GuardName: "web"}
			Expect(db.Create(row).Error).To(Succeed())
			ids = append(ids, row.ID)
		}
		return ids
	}

	countEvents := func(event string) int64 {
		var n int64
		Expect(db.Model(&activityDatamodel.ActivityLog{}).Where("event = ?", event).Count(&n).Error).To(Succeed())
		return n
	}

	path := func(id int64) string {
		return "/permissions/" + strconv.FormatInt(id, 10)
	}

	It("should handle POST /permissions and return the created rows", func() {
		w, env := do(http.MethodPost, "/permissions", `[{"name":"view_users"},{"name":"edit_users","guard_name":"api"}]`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
		Expect(env.Meta.Message).To(Equal("Permissions created successfully."))

		result, ok := env.Result.([]interface{})
		Expect(ok).To(BeTrue())
		Expect(result).To(HaveLen(2))
		first := result[0].(map[string]interface{})
		Expect(first["name"]).To(Equal("view_users"))
		Expect(first["guard_name"]).To(Equal("web"))
		Expect(first["id"]).To(BeNumerically(">", 0))

		Expect(countEvents("Permissions Created")).To(Equal(int64(1)))
	})

	It("should create nothing when one name in the batch exists", func() {
		seed("view_users")

		w, env := do(http.MethodPost, "/permissions", `[{"name":"edit_users"},{"name":"view_users"}]`)

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(env.Errors).To(HaveKey("1.name"))

		var count int64
		Expect(db.Model(&rbacDatamodel.Permission{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
		Expect(countEvents("Permission Validation Failed")).To(Equal(int64(1)))
	})

	It("should list permissions", func() {
		seed("a", "b", "c")

		w, env := do(http.MethodGet, "/permissions", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Result).To(HaveLen(3))
		Expect(env.Errors).To(BeEmpty())
	})

	It("should return 404 for unknown and malformed ids", func() {
		w, env := do(http.MethodGet, "/permissions/12345", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(env.Meta.Message).To(Equal("Permission not found."))
		Expect(env.Meta.Success).To(BeFalse())

		w, _ = do(http.MethodGet, "/permissions/nope", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))

		Expect(countEvents("Permission Not Found")).To(Equal(int64(2)))
	})

	It("should rename a permission, including to its own name", func() {
		ids := seed("view_users", "edit_users")

		w, env := do(http.MethodPut, path(ids[0]), `{"name":"list_users"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Result).To(HaveKeyWithValue("name", "list_users"))

		w, _ = do(http.MethodPut, path(ids[0]), `{"name":"list_users"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w, env = do(http.MethodPut, path(ids[0]), `{"name":"edit_users"}`)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(env.Errors).To(HaveKey("name"))
	})

	It("should delete one permission and its role assignments", func() {
		ids := seed("view_users")
		roleRow := &rbacDatamodel.Role{Name: "Admin", GuardName: "web"}
		Expect(db.Omit("Permissions").Create(roleRow).Error).To(Succeed())
		Expect(db.Create(&rbacDatamodel.RolePermission{RoleID: roleRow.ID, PermissionID: ids[0]}).Error).To(Succeed())

		w, env := do(http.MethodDelete, path(ids[0]), "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Meta.Message).To(Equal("Permission deleted successfully."))
		Expect(env.Result).To(BeEmpty())

		var joins, roles int64
		Expect(db.Model(&rbacDatamodel.RolePermission{}).Count(&joins).Error).To(Succeed())
		Expect(db.Model(&rbacDatamodel.Role{}).Count(&roles).Error).To(Succeed())
		Expect(joins).To(BeZero())
		Expect(roles).To(Equal(int64(1)))
	})

	Describe("DELETE /permissions", func() {
		It("should reject an empty id list", func() {
			w, env := do(http.MethodDelete, "/permissions", `{"ids":[]}`)
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(env.Meta.Message).To(Equal("No IDs provided."))
		})

		It("should return 404 and delete nothing when no id exists", func() {
			seed("view_users")

			w, _ := do(http.MethodDelete, "/permissions", `{"ids":[900,901]}`)
			Expect(w.Code).To(Equal(http.StatusNotFound))

			var count int64
			Expect(db.Model(&rbacDatamodel.Permission{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("should delete the ids that exist and ignore the rest", func() {
			ids := seed("a", "b", "c")
			body := `{"ids":[` + strconv.FormatInt(ids[0], 10) + `,` + strconv.FormatInt(ids[2], 10) + `,999]}`

			w, _ := do(http.MethodDelete, "/permissions", body)
			Expect(w.Code).To(Equal(http.StatusOK))

			var remaining []rbacDatamodel.Permission
			Expect(db.Find(&remaining).Error).To(Succeed())
			Expect(remaining).To(HaveLen(1))
			Expect(remaining[0].Name).To(Equal("b"))
			Expect(countEvents("Permissions Deleted")).To(Equal(int64(1)))
		})
	})
})
