package testutil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/contacthub/internal"
	auditDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/audit"
	brandingDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/branding"
	categoryDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/category"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	customfieldDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/customfield"
	divisionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/division"
	sessionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/session"
	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
)

// NewSQLiteDB opens an isolated in-memory database with every table migrated.
// Each call gets its own named shared-cache database so pooled connections
// see the same schema.
func NewSQLiteDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&divisionDatamodel.Division{},
		&userDatamodel.User{},
		&userDatamodel.UserDivision{},
		&sessionDatamodel.Session{},
		&brandingDatamodel.BrandingSettings{},
		&categoryDatamodel.ContactCategory{},
		&customfieldDatamodel.CustomFieldDefinition{},
		&uploadDatamodel.Upload{},
		&contactDatamodel.Contact{},
		&auditDatamodel.AuditLog{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithUser attaches an authenticated principal to the request.
func WithUser(r *http.Request, user *internal.User) *http.Request {
	return r.WithContext(internal.ContextWithUser(r.Context(), user))
}

func Int64Ptr(v int64) *int64 {
	return &v
}

func StringPtr(v string) *string {
	return &v
}
