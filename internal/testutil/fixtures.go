package testutil

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	divisionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/division"
	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
)

// CreateUser inserts an active user with the given role and password hash.
func CreateUser(db *gorm.DB, email string, role internal.Role, passwordHash string) (*userDatamodel.User, error) {
	u := &userDatamodel.User{
		Email:        email,
		FirstName:    "Test",
		LastName:     string(role),
		PasswordHash: passwordHash,
		Role:         string(role),
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// CreateDivision inserts a division; inactive divisions are written in two
// steps so the explicit false survives.
func CreateDivision(db *gorm.DB, name string, active bool) (*divisionDatamodel.Division, error) {
	d := &divisionDatamodel.Division{Name: name, IsActive: true}
	if err := db.Create(d).Error; err != nil {
		return nil, err
	}
	if !active {
		if err := db.Model(d).Update("is_active", false).Error; err != nil {
			return nil, err
		}
		d.IsActive = false
	}
	return d, nil
}

func AssignDivision(db *gorm.DB, userID, divisionID int64, canManage bool) error {
	return db.Create(&userDatamodel.UserDivision{
		UserID:     userID,
		DivisionID: divisionID,
		CanManage:  canManage,
	}).Error
}

// Principal builds a request principal for service-level tests.
func Principal(id int64, role internal.Role, divisionIDs ...int64) *internal.User {
	memberships := make([]internal.Membership, 0, len(divisionIDs))
	for _, d := range divisionIDs {
		memberships = append(memberships, internal.Membership{DivisionID: d})
	}
	return &internal.User{ID: id, Email: "p@example.com", Role: role, Divisions: memberships}
}
